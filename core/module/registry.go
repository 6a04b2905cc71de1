package module

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/router"
)

// Registry owns module factories and the current loaded generation.
// Load and Reload build a complete new Set and swap it in atomically;
// a failed reload leaves the previous generation serving.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	site      *config.Site
	log       *slog.Logger

	current atomic.Pointer[Set]
}

func NewRegistry(site *config.Site, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		factories: make(map[string]Factory),
		site:      site,
		log:       log,
	}
}

// Register adds a factory under the given name. Must be called before Load;
// registering the same name twice panics, it is a programming error.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("module: duplicate factory %q", name))
	}
	r.factories[name] = f
}

// Load builds the first generation from the site's enabled module
// declarations. A module whose Init fails is excluded from the set and
// reported in the joined error; the rest of the site keeps working.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	descriptors := make([]*Descriptor, 0, len(r.factories))
	for _, decl := range r.site.Modules() {
		if !decl.Enabled {
			continue
		}
		d, err := r.instantiate(ctx, decl.Name)
		if err != nil {
			r.log.Error("module load failed", logger.Module(decl.Name), logger.Error(err))
			errs = append(errs, fmt.Errorf("module %s: %w", decl.Name, err))
			continue
		}
		descriptors = append(descriptors, d)
	}

	set := newSet(descriptors)
	r.current.Store(set)
	r.log.Info("modules loaded", logger.Count("modules", set.Len()))
	return errors.Join(errs...)
}

// Prepare builds the next generation from the given module declarations
// without swapping it in. Still-enabled modules are reloaded in place, newly
// enabled ones are instantiated fresh. Any failure discards the candidate
// and the current generation keeps serving.
func (r *Registry) Prepare(ctx context.Context, decls []config.ModuleSetting) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prepare(ctx, decls)
}

// Commit swaps a prepared generation in, tearing down the modules it dropped.
func (r *Registry) Commit(set *Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commit(set)
}

// Reload re-reads the site configuration and rebuilds the generation from
// it. Both commit together: a module that fails to re-initialize keeps the
// previous generation and the previous in-memory site configuration.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged, err := r.site.Stage()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	set, err := r.prepare(ctx, staged.Modules())
	if err != nil {
		return err
	}

	r.site.Commit(staged)
	r.commit(set)
	return nil
}

func (r *Registry) prepare(ctx context.Context, decls []config.ModuleSetting) (*Set, error) {
	old := r.current.Load()
	if old == nil {
		old = newSet(nil)
	}
	descriptors := make([]*Descriptor, 0, len(r.factories))
	for _, decl := range decls {
		if !decl.Enabled {
			continue
		}
		var (
			d   *Descriptor
			err error
		)
		if prev, ok := old.Get(decl.Name); ok {
			d, err = r.reinitialize(ctx, prev.Instance())
		} else {
			d, err = r.instantiate(ctx, decl.Name)
		}
		if err != nil {
			r.log.Error("module reload failed, keeping previous generation",
				logger.Module(decl.Name), logger.Error(err))
			return nil, fmt.Errorf("%w: module %s: %w", ErrReloadFailed, decl.Name, err)
		}
		descriptors = append(descriptors, d)
	}
	return newSet(descriptors), nil
}

func (r *Registry) commit(set *Set) {
	old := r.current.Load()
	if old == nil {
		old = newSet(nil)
	}
	for _, name := range old.Names() {
		if _, kept := set.Get(name); kept {
			continue
		}
		prev, _ := old.Get(name)
		if dis, ok := prev.Instance().(Disabler); ok {
			dis.Disable()
		}
		r.log.Info("module disabled", logger.Module(name))
	}

	r.current.Store(set)
	r.log.Info("modules reloaded", logger.Count("modules", set.Len()))
}

// Install runs the install hook of every loaded module that has one, in
// dispatch order. Used by the first-run install flow.
func (r *Registry) Install(ctx context.Context) error {
	set := r.current.Load()
	if set == nil {
		return ErrNotLoaded
	}
	var errs []error
	for _, d := range set.descriptors {
		inst, ok := d.Instance().(Installer)
		if !ok {
			continue
		}
		if err := inst.Install(ctx, r.appFor(d.Name(), d.router)); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Snapshot returns the current generation's modules in dispatch order.
// It is the modules source the dispatch coordinator is constructed with.
func (r *Registry) Snapshot() []dispatch.RoutedModule {
	set := r.current.Load()
	if set == nil {
		return nil
	}
	return set.Routed()
}

// Current returns the loaded generation, or nil before Load.
func (r *Registry) Current() *Set { return r.current.Load() }

func (r *Registry) instantiate(ctx context.Context, name string) (*Descriptor, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, ErrUnknownModule
	}
	mod := f()
	rt := router.New(mod.Name())
	if err := mod.Init(ctx, r.appFor(mod.Name(), rt)); err != nil {
		return nil, err
	}
	return &Descriptor{mod: mod, router: rt, priority: priorityOf(mod)}, nil
}

func (r *Registry) reinitialize(ctx context.Context, mod Module) (*Descriptor, error) {
	rt := router.New(mod.Name())
	app := r.appFor(mod.Name(), rt)
	var err error
	if rel, ok := mod.(Reloader); ok {
		err = rel.Reload(ctx, app)
	} else {
		err = mod.Init(ctx, app)
	}
	if err != nil {
		return nil, err
	}
	return &Descriptor{mod: mod, router: rt, priority: priorityOf(mod)}, nil
}

func (r *Registry) appFor(name string, rt *router.Router) *App {
	return &App{
		Router: rt,
		Site:   r.site,
		Log:    r.log.With(logger.Module(name)),
	}
}

func priorityOf(mod Module) int {
	if p, ok := mod.(Prioritized); ok {
		return p.Priority()
	}
	return PriorityDefault
}
