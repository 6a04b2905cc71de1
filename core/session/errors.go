package session

import "errors"

var (
	// ErrNotFound means no session exists for the given token.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired means the session exists but its lifetime is over.
	ErrExpired = errors.New("session: expired")

	// ErrDeleted signals the transport that the session was destroyed and
	// the cookie must be cleared.
	ErrDeleted = errors.New("session: deleted")

	// ErrTokenGeneration wraps failures of the crypto random source.
	ErrTokenGeneration = errors.New("session: token generation failed")

	// ErrStoreUnavailable wraps backend failures of a remote store.
	ErrStoreUnavailable = errors.New("session: store unavailable")
)
