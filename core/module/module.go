package module

import (
	"context"
	"log/slog"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/router"
)

// App is the handle a module receives during initialization: its own route
// table, the site configuration, and a logger scoped to the module.
type App struct {
	Router *router.Router
	Site   *config.Site
	Log    *slog.Logger
}

// Module is the contract every CMS module satisfies. Init runs at load and
// reload time and registers the module's routes on app.Router; route
// handlers then run per request under the dispatch coordinator.
type Module interface {
	Name() string
	Init(ctx context.Context, app *App) error
}

// Reloader is implemented by modules that want to react to a configuration
// reload themselves instead of being re-initialized from scratch.
type Reloader interface {
	Reload(ctx context.Context, app *App) error
}

// Disabler is implemented by modules that hold resources to release when
// the module is torn down during a reload.
type Disabler interface {
	Disable()
}

// Installer is implemented by modules that participate in the first-run
// install flow (e.g. seeding storage).
type Installer interface {
	Install(ctx context.Context, app *App) error
}

// Prioritized is implemented by modules that must win scalar tie-breaks
// against ordinary modules (and order first in menus). Priority does not
// serialize dispatch: all enabled modules still route concurrently.
type Prioritized interface {
	Priority() int
}

// Priorities for Prioritized modules.
const (
	PriorityFirst   = 100
	PriorityDefault = 0
	PriorityLast    = -100
)

// Factory creates a fresh module instance. Registered once at startup;
// invoked at load time for each enabled declaration, and again when a
// previously disabled module is re-enabled.
type Factory func() Module
