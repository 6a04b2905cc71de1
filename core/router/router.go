package router

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/cliftonc/calipso/core/dispatch"
)

// Handler is a module route handler. It receives the module-bound response
// sink and the registration's resolved template/block references, and
// reports failure through its error return; it never writes to the network.
type Handler func(mc *dispatch.ModuleContext, route Resolved) error

// Resolved carries the per-registration rendering references a handler was
// registered with, plus the captures of the match that invoked it. Handlers
// must read path captures from Params rather than the request-wide parameter
// map: the map is shared with concurrently dispatched modules whose wildcard
// routes write the same positional keys.
type Resolved struct {
	Template string
	Block    string
	Params   Params
}

// registration is one immutable (pattern, handler, options) entry. Entries
// are discarded and re-created when the owning module reloads.
type registration struct {
	pattern  *Pattern
	handler  Handler
	admin    bool
	last     bool
	template string
	block    string
}

// RouteOption configures one route registration.
type RouteOption func(*registration)

// Admin gates the route: the handler runs only for authenticated admin
// sessions; other sessions are redirected instead.
func Admin() RouteOption {
	return func(r *registration) { r.admin = true }
}

// Last declares that once this registration matches, no later registration
// of the same module may run for the request.
func Last() RouteOption {
	return func(r *registration) { r.last = true }
}

// Template records the template reference handed to the handler.
func Template(name string) RouteOption {
	return func(r *registration) { r.template = name }
}

// Block records the block name handed to the handler.
func Block(name string) RouteOption {
	return func(r *registration) { r.block = name }
}

// LoginPath is where admin-gated routes redirect unauthorized sessions.
const LoginPath = "/user/login"

// Router owns the ordered route registrations of one module and matches
// incoming requests against all of them. Registrations happen during module
// initialization; Route is called once per request by the dispatch
// coordinator, concurrently with other modules' routers.
type Router struct {
	module string
	regs   []*registration
}

// New creates an empty router for the named module.
func New(module string) *Router {
	return &Router{module: module}
}

// Module returns the owning module's name.
func (r *Router) Module() string { return r.module }

// AddRoute compiles the pattern string and appends a registration.
// A compile failure is reported to the caller and nothing is registered.
func (r *Router) AddRoute(pattern string, h Handler, opts ...RouteOption) error {
	p, err := Compile(pattern)
	if err != nil {
		return err
	}
	r.add(p, h, opts...)
	return nil
}

// AddRegexRoute appends a registration for a raw matching expression,
// evaluated only against GET.
func (r *Router) AddRegexRoute(re *regexp.Regexp, h Handler, opts ...RouteOption) {
	r.add(FromRegex(re), h, opts...)
}

func (r *Router) add(p *Pattern, h Handler, opts ...RouteOption) {
	reg := &registration{pattern: p, handler: h}
	for _, opt := range opts {
		opt(reg)
	}
	r.regs = append(r.regs, reg)
}

// Routes returns the registered pattern sources in registration order.
func (r *Router) Routes() []string {
	out := make([]string, len(r.regs))
	for i, reg := range r.regs {
		out[i] = reg.pattern.String()
	}
	return out
}

// Route matches the request against every registration in registration
// order and invokes each matching handler; a router may run more than one
// handler per request. A registration declared Last stops the scan once it
// has run. Handler errors are annotated with the module name, aggregated,
// and returned; they never stop later registrations from running.
func (r *Router) Route(mc *dispatch.ModuleContext) error {
	req := mc.Request()

	var errs []error
	for _, reg := range r.regs {
		params, ok := reg.pattern.Match(req.Method, req.URL.Path)
		if !ok {
			continue
		}

		// A universal wildcard is a decorator, not a content route: it must
		// not count as "handled" when deciding between 200 and 404.
		if !reg.pattern.Wildcard() {
			mc.MarkRouteMatched()
		}

		mc.SetParams(params.Named, params.Positional)

		if reg.admin && !mc.IsAdmin() {
			mc.SetStatus(http.StatusUnauthorized)
			mc.Redirect(LoginPath)
			continue
		}

		if err := reg.handler(mc, Resolved{Template: reg.template, Block: reg.block, Params: params}); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", r.module, err))
		}

		if reg.last {
			break
		}
	}
	return errors.Join(errs...)
}
