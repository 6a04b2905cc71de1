package dispatch

import "errors"

var (
	// ErrHandlerPanic wraps a panic recovered from a module handler during
	// dispatch. The panicking module is named in the error message.
	ErrHandlerPanic = errors.New("dispatch: handler panic")
)
