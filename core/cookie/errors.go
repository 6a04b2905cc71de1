package cookie

import "errors"

var (
	// ErrNoSecret is returned when the Jar is constructed without any
	// usable signing secret.
	ErrNoSecret = errors.New("cookie: no signing secret provided")

	// ErrSecretTooShort is returned for secrets under the minimum length.
	ErrSecretTooShort = errors.New("cookie: signing secret too short")

	// ErrCookieNotFound is returned when the request carries no cookie
	// with the requested name.
	ErrCookieNotFound = errors.New("cookie: not found")

	// ErrInvalidFormat is returned for cookie values that are not in the
	// value|signature shape the Jar produces.
	ErrInvalidFormat = errors.New("cookie: invalid format")

	// ErrInvalidSignature is returned when no configured secret verifies
	// the cookie's signature.
	ErrInvalidSignature = errors.New("cookie: invalid signature")
)
