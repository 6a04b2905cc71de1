package dispatch

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliftonc/calipso/core/logger"
)

// RoutedModule is one enabled module as seen by the coordinator: a name, a
// tie-breaking priority, and a router to invoke. *router.Router wrapped by
// the module registry satisfies it.
type RoutedModule interface {
	Name() string
	Priority() int
	Route(mc *ModuleContext) error
}

// Renderer is the theme composition layer. Implementations must buffer
// internally and only write to w when rendering succeeded, so a failed
// render leaves the ResponseWriter untouched for the fallback path.
type Renderer interface {
	Render(w http.ResponseWriter, rc *RequestContext) error
	RenderNotFound(w http.ResponseWriter, rc *RequestContext) error
	RenderError(w http.ResponseWriter, rc *RequestContext) error
}

// Reloader commits a configuration reload: new config, logging, module set,
// then theme. Implementations must be serialized and must leave the prior
// state in force when any step fails.
type Reloader interface {
	Reload(ctx *ReloadContext) error
}

// ReloadContext carries what the reload path needs from the triggering
// request.
type ReloadContext struct {
	RC *RequestContext
}

// InstallPath is where requests are redirected until the site is installed.
const InstallPath = "/admin/install"

// Coordinator is the per-request orchestrator: it fans out to every enabled
// module's router concurrently, joins on all of them, applies the hot-reload
// check, and resolves the terminal response action.
type Coordinator struct {
	modules   func() []RoutedModule
	renderer  Renderer
	reloader  Reloader
	installed func() bool
	log       *slog.Logger
}

// CoordinatorOption configures optional coordinator collaborators.
type CoordinatorOption func(*Coordinator)

// WithReloader wires the hot-reload hook invoked after the join barrier.
func WithReloader(r Reloader) CoordinatorOption {
	return func(c *Coordinator) { c.reloader = r }
}

// WithInstalledCheck wires the install-pending check. When the check reports
// false, every request outside the install flow redirects to it.
func WithInstalledCheck(fn func() bool) CoordinatorOption {
	return func(c *Coordinator) { c.installed = fn }
}

// WithLogger sets the coordinator's logger.
func WithLogger(log *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = log }
}

// NewCoordinator creates a coordinator reading its module set through the
// snapshot accessor, so a reload swapping the registry is picked up by the
// next request without affecting requests already in flight.
func NewCoordinator(modules func() []RoutedModule, renderer Renderer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		modules:  modules,
		renderer: renderer,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServeHTTP handles one inbound request end to end.
func (c *Coordinator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := NewRequestContext(r)

	// Fan out: start every enabled module's router without waiting, then
	// join on all of them. Handler errors are logged with the module name
	// attached and never abort the barrier; whatever partial context exists
	// is still rendered.
	mods := c.modules()
	futures := make([]*routeFuture, 0, len(mods))
	for _, mod := range mods {
		futures = append(futures, start(r.Context(), mod, rc.ForModule(mod.Name(), mod.Priority())))
	}
	for _, f := range futures {
		if err := f.Await(); err != nil {
			c.log.Error("module dispatch failed",
				logger.Module(f.module),
				logger.Error(err),
				logger.RequestID(rc.ID()),
				logger.Path(r.URL.Path),
			)
		}
	}

	if rc.ReloadRequested() && c.reloader != nil {
		if err := c.reloader.Reload(&ReloadContext{RC: rc}); err != nil {
			c.log.Error("configuration reload failed", logger.Error(err), logger.RequestID(rc.ID()))
			rc.Flash("error", rc.T("Configuration reload failed, previous configuration kept."))
		}
	}

	c.finalize(w, r, rc)
}

// finalize resolves the terminal state. Exactly one branch writes output.
func (c *Coordinator) finalize(w http.ResponseWriter, r *http.Request, rc *RequestContext) {
	if c.installed != nil && !c.installed() && !strings.HasPrefix(r.URL.Path, InstallPath) {
		http.Redirect(w, r, InstallPath, http.StatusFound)
		return
	}

	if target, ok := rc.RedirectTarget(); ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	status, explicit := rc.Status()
	if !explicit {
		if rc.RouteMatched() {
			status = http.StatusOK
		} else {
			status = http.StatusNotFound
		}
	}

	switch {
	case status == http.StatusNotFound:
		c.render(w, rc, c.renderer.RenderNotFound, http.StatusNotFound)
	case status >= http.StatusInternalServerError:
		c.render(w, rc, c.renderer.RenderError, status)
	default:
		if contentType, body, ok := rc.Raw(); ok {
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(status)
			if _, err := w.Write(body); err != nil {
				c.log.Error("raw response write failed", logger.Error(err), logger.RequestID(rc.ID()))
			}
			return
		}
		c.render(w, rc, c.renderer.Render, status)
	}
}

func (c *Coordinator) render(w http.ResponseWriter, rc *RequestContext, fn func(http.ResponseWriter, *RequestContext) error, status int) {
	if err := fn(w, rc); err != nil {
		c.log.Error("page render failed",
			logger.Error(err),
			logger.RequestID(rc.ID()),
			logger.StatusCode(status),
		)
		// Renderers buffer, so nothing reached the wire yet.
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
