package theme

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
)

// Registry owns the active theme for a server instance. The active theme is
// an immutable snapshot behind an atomic pointer: dispatching requests read
// it lock-free, and Activate builds a fresh Theme and swaps the pointer, so
// a reload never mutates a theme an in-flight request is rendering with.
//
// Registry implements dispatch.Renderer.
type Registry struct {
	themesDir string
	log       *slog.Logger
	title     func() string
	hub       *Hub

	mu         sync.Mutex // serializes commits and subscriptions
	current    atomic.Pointer[Theme]
	onActivate []func()
}

// RegistryOption configures optional registry collaborators.
type RegistryOption func(*Registry)

// WithTitle wires the site-title accessor handed to templates.
func WithTitle(fn func() string) RegistryOption {
	return func(r *Registry) { r.title = fn }
}

// WithHub wires a live-reload hub notified after every successful activate.
func WithHub(h *Hub) RegistryOption {
	return func(r *Registry) { r.hub = h }
}

// NewRegistry creates a registry rooted at themesDir and activates the
// named theme. Failure to load the initial theme is fatal for startup.
func NewRegistry(themesDir, name string, log *slog.Logger, opts ...RegistryOption) (*Registry, error) {
	if log == nil {
		log = logger.Discard()
	}
	r := &Registry{themesDir: themesDir, log: log}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Activate(name); err != nil {
		return nil, err
	}
	return r, nil
}

// Prepare loads the named theme from disk, pre-compiling every template,
// without activating it. The transactional reload path prepares the theme
// alongside the other staged components and commits them together.
func (r *Registry) Prepare(name string) (*Theme, error) {
	t, err := Load(filepath.Join(r.themesDir, name), r.log)
	if err != nil {
		return nil, fmt.Errorf("prepare theme %s: %w", name, err)
	}
	return t, nil
}

// Commit swaps a prepared theme in for subsequent requests.
func (r *Registry) Commit(t *Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current.Store(t)
	r.log.Info("theme activated", logger.Theme(t.Name()), logger.Count("layouts", len(t.layouts)))

	if r.hub != nil {
		r.hub.Broadcast("theme:reloaded")
	}
	for _, fn := range r.onActivate {
		fn()
	}
}

// subscribeActivate registers fn to run after every theme swap. The watcher
// uses it to follow the active theme directory; fn must not call back into
// the registry.
func (r *Registry) subscribeActivate(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onActivate = append(r.onActivate, fn)
}

// Activate loads the named theme and swaps it in. On failure the previous
// theme stays active.
func (r *Registry) Activate(name string) error {
	t, err := r.Prepare(name)
	if err != nil {
		return err
	}
	r.Commit(t)
	return nil
}

// Reload rebuilds the active theme's template cache wholesale from disk.
func (r *Registry) Reload() error {
	t := r.current.Load()
	return r.Activate(filepath.Base(t.Dir()))
}

// Current returns the active theme snapshot.
func (r *Registry) Current() *Theme {
	return r.current.Load()
}

func (r *Registry) siteTitle() string {
	if r.title == nil {
		return ""
	}
	return r.title()
}

// Render composes the themed page for a handled request.
func (r *Registry) Render(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	status, ok := rc.Status()
	if !ok {
		status = http.StatusOK
	}
	return r.Current().RenderPage(w, rc, rc.Layout(), r.siteTitle(), status, r.log)
}

// RenderNotFound renders the themed not-found page through the ordinary
// composition pipeline.
func (r *Registry) RenderNotFound(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	return r.Current().RenderPage(w, rc, "notfound", r.siteTitle(), http.StatusNotFound, r.log)
}

// RenderError renders the themed error page.
func (r *Registry) RenderError(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	status, ok := rc.Status()
	if !ok || status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	return r.Current().RenderPage(w, rc, "error", r.siteTitle(), status, r.log)
}
