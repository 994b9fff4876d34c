package session

import "errors"

var (
	// ErrMissingToken is returned when no token was presented at all.
	ErrMissingToken = errors.New("missing token")

	// ErrInvalidToken is returned when a token fails verification, is
	// unknown to the ledger, was already rotated or revoked, or does not
	// hash to the stored value. The message is deliberately uniform so
	// callers cannot distinguish which check failed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token is past its expiry.
	ErrExpiredToken = errors.New("expired token")

	// ErrInvalidOAuthState is returned when an anti-replay state value is
	// absent, expired, already consumed, or bound to another provider.
	ErrInvalidOAuthState = errors.New("invalid oauth state")

	// ErrSubjectNotFound is returned when a rotated refresh token points
	// at a principal that no longer exists.
	ErrSubjectNotFound = errors.New("subject not found")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
