package patch

import "errors"

var (
	// ErrNoJSON indicates no balanced JSON object was found in the
	// response text.
	ErrNoJSON = errors.New("no JSON object found in response")

	// ErrInvalidJSON indicates a candidate span was found but failed to
	// decode.
	ErrInvalidJSON = errors.New("invalid JSON in response")
)
