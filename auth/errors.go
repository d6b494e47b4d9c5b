package auth

import "errors"

var (
	// ErrMissingAppID indicates app JWT generation without an app ID.
	ErrMissingAppID = errors.New("app ID is required")

	// ErrInvalidToken indicates a token that failed validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
