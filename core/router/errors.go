package router

import "errors"

var (
	// ErrPatternCompile reports a malformed route pattern. It is fatal at
	// module-load time: the registration is rejected.
	ErrPatternCompile = errors.New("router: pattern compile failed")
)
