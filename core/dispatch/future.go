package dispatch

import (
	"context"
	"fmt"
)

// routeFuture tracks one module router invocation started for a request.
// The coordinator awaits every future it started; the barrier completes
// only when all of them have, never on first-to-finish.
type routeFuture struct {
	module string
	err    error
	done   chan struct{}
}

// start runs one module's router in its own goroutine. A panicking handler
// is converted to an error so it cannot take down the process or wedge the
// barrier.
func start(ctx context.Context, mod RoutedModule, mc *ModuleContext) *routeFuture {
	f := &routeFuture{module: mod.Name(), done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("%w: %s: %v", ErrHandlerPanic, mod.Name(), r)
			}
		}()

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.err = mod.Route(mc)
	}()

	return f
}

// Await blocks until the invocation completes and returns its error.
func (f *routeFuture) Await() error {
	<-f.done
	return f.err
}
