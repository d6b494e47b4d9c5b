package patchflow

import "errors"

// Input validation errors. These short-circuit a flow before any network
// call is made.
var (
	// ErrEmptyRequest indicates the change request text was blank.
	ErrEmptyRequest = errors.New("empty request text")

	// ErrMissingModelKey indicates no completion API key was supplied.
	ErrMissingModelKey = errors.New("missing model API key")

	// ErrMissingToken indicates no VCS host token was supplied.
	ErrMissingToken = errors.New("missing VCS token")

	// ErrMissingOwner indicates no repository owner was supplied.
	ErrMissingOwner = errors.New("missing repository owner")

	// ErrMissingRepo indicates no repository name was supplied.
	ErrMissingRepo = errors.New("missing repository name")
)
