package module

import "errors"

var (
	// ErrUnknownModule is returned when the site configuration declares a
	// module no factory was registered for.
	ErrUnknownModule = errors.New("module: no factory registered")

	// ErrReloadFailed wraps any error that aborted a configuration reload.
	// The previous module generation keeps serving.
	ErrReloadFailed = errors.New("module: reload failed")

	// ErrNotLoaded is returned by operations that need a loaded generation
	// before Load has run.
	ErrNotLoaded = errors.New("module: registry not loaded")
)
