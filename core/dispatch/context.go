package dispatch

import (
	"context"
	"maps"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// User is the per-request view of the authenticated session user, supplied
// by the session layer through the request context. A nil User means an
// anonymous request.
type User struct {
	ID       uuid.UUID
	Username string
	Admin    bool
}

// Flash is a one-shot message carried across requests by the session layer.
type Flash struct {
	Level   string
	Message string
}

// Flasher is the narrow flash-message capability the session layer injects
// per request.
type Flasher interface {
	Flash(level, message string)
	Drain() []Flash
}

// scalar is a response-level field written concurrently by handlers from
// different modules. A write is applied when its priority is strictly higher
// than the current writer's, or when the field is unset; among equal-priority
// writers the first applied write wins. This makes the outcome deterministic
// per module set instead of depending on goroutine completion order.
type scalar[T any] struct {
	value    T
	set      bool
	priority int
}

func (s *scalar[T]) write(v T, priority int) {
	if !s.set || priority > s.priority {
		s.value = v
		s.set = true
		s.priority = priority
	}
}

func (s *scalar[T]) get() (T, bool) {
	return s.value, s.set
}

// RequestContext is the per-request accumulator shared by every concurrently
// dispatched module router. It is created at the start of dispatch and
// discarded at the end; it must never be reused across requests.
//
// Handlers never touch it directly: they receive a *ModuleContext sink bound
// to their module's name and priority.
type RequestContext struct {
	req *http.Request
	id  string

	blocks *BlockAccumulator
	menus  *MenuAccumulator

	user      *User
	flasher   Flasher
	translate func(string) string

	mu           sync.Mutex
	params       map[string]string
	routeMatched bool
	reload       bool
	status       scalar[int]
	layout       scalar[string]
	redirect     scalar[string]
	rawType      string
	rawBody      []byte
}

// NewRequestContext creates the accumulator for one inbound request, pulling
// the user, flasher, translator, and request ID injected by middleware from
// the request's context.
func NewRequestContext(r *http.Request) *RequestContext {
	rc := &RequestContext{
		req:       r,
		blocks:    NewBlockAccumulator(),
		menus:     NewMenuAccumulator(),
		params:    make(map[string]string),
		user:      UserFromContext(r.Context()),
		flasher:   FlasherFromContext(r.Context()),
		translate: TranslatorFromContext(r.Context()),
	}
	if rc.id = RequestIDFromContext(r.Context()); rc.id == "" {
		rc.id = uuid.NewString()
	}
	return rc
}

// Request returns the inbound request.
func (rc *RequestContext) Request() *http.Request { return rc.req }

// ID returns the request's correlation ID.
func (rc *RequestContext) ID() string { return rc.id }

// Blocks returns the block accumulator.
func (rc *RequestContext) Blocks() *BlockAccumulator { return rc.blocks }

// Menus returns the menu accumulator.
func (rc *RequestContext) Menus() *MenuAccumulator { return rc.menus }

// User returns the session user, nil when anonymous.
func (rc *RequestContext) User() *User { return rc.user }

// Param returns one matched parameter value, "" if absent.
func (rc *RequestContext) Param(name string) string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.params[name]
}

// Params returns a copy of the matched-parameter map.
func (rc *RequestContext) Params() map[string]string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return maps.Clone(rc.params)
}

// RouteMatched reports whether any non-wildcard registration matched.
func (rc *RequestContext) RouteMatched() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.routeMatched
}

// ReloadRequested reports whether a handler asked for a configuration reload.
func (rc *RequestContext) ReloadRequested() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.reload
}

// Status returns the response status set by a handler, if any.
func (rc *RequestContext) Status() (int, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.status.get()
}

// Layout returns the layout name requested by a handler, or "" for the default.
func (rc *RequestContext) Layout() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	name, _ := rc.layout.get()
	return name
}

// RedirectTarget returns the redirect destination set by a handler, if any.
func (rc *RequestContext) RedirectTarget() (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.redirect.get()
}

// Raw returns the machine-readable response body, if a handler marked this
// response as raw (e.g. JSON instead of themed markup).
func (rc *RequestContext) Raw() (contentType string, body []byte, ok bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.rawType, rc.rawBody, rc.rawType != ""
}

// T translates a key using the per-request translator, falling back to the
// key itself when no translator was injected.
func (rc *RequestContext) T(key string) string {
	if rc.translate == nil {
		return key
	}
	return rc.translate(key)
}

// Flashes drains the pending flash messages for rendering.
func (rc *RequestContext) Flashes() []Flash {
	if rc.flasher == nil {
		return nil
	}
	return rc.flasher.Drain()
}

// Flash records a one-shot message when a flasher is present.
func (rc *RequestContext) Flash(level, message string) {
	if rc.flasher != nil {
		rc.flasher.Flash(level, message)
	}
}

// ForModule binds a write sink to one module's identity for tie-breaking.
func (rc *RequestContext) ForModule(module string, priority int) *ModuleContext {
	return &ModuleContext{rc: rc, module: module, priority: priority}
}

// ModuleContext is the response sink a handler receives: it can append
// blocks and menu entries, set response scalars, and trigger a reload, but
// it cannot write to the network. All writes funnel into the shared
// RequestContext under its lock.
type ModuleContext struct {
	rc       *RequestContext
	module   string
	priority int
}

// Module returns the owning module's name.
func (mc *ModuleContext) Module() string { return mc.module }

// Context returns the request's context.
func (mc *ModuleContext) Context() context.Context { return mc.rc.req.Context() }

// Request returns the inbound request.
func (mc *ModuleContext) Request() *http.Request { return mc.rc.req }

// User returns the session user, nil when anonymous.
func (mc *ModuleContext) User() *User { return mc.rc.user }

// IsAdmin reports whether the session user is an authenticated admin.
func (mc *ModuleContext) IsAdmin() bool {
	return mc.rc.user != nil && mc.rc.user.Admin
}

// Param returns one matched parameter value, "" if absent.
func (mc *ModuleContext) Param(name string) string { return mc.rc.Param(name) }

// T translates a key with the per-request translator.
func (mc *ModuleContext) T(key string) string { return mc.rc.T(key) }

// SetParams merges captured parameters into the shared parameter map.
// Positional captures are stored under their zero-based index. Query-string
// parameters overwrite same-named path parameters.
func (mc *ModuleContext) SetParams(named map[string]string, positional []string) {
	query := mc.rc.req.URL.Query()

	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()

	for name, value := range named {
		mc.rc.params[name] = value
	}
	for i, value := range positional {
		mc.rc.params[strconv.Itoa(i)] = value
	}
	for name := range named {
		if qv := query.Get(name); qv != "" {
			mc.rc.params[name] = qv
		}
	}
}

// MarkRouteMatched records that a real (non-wildcard) registration matched.
func (mc *ModuleContext) MarkRouteMatched() {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.routeMatched = true
}

// AppendBlock appends a rendered fragment to the named block.
func (mc *ModuleContext) AppendBlock(name, fragment string) {
	mc.rc.blocks.Append(name, fragment)
}

// AppendMenu contributes a navigation entry to a menu region.
func (mc *ModuleContext) AppendMenu(region string, entry MenuEntry) {
	mc.rc.menus.Append(region, entry)
}

// SetStatus sets the response status, subject to priority tie-breaking.
func (mc *ModuleContext) SetStatus(code int) {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.status.write(code, mc.priority)
}

// SetLayout requests a page layout, subject to priority tie-breaking.
func (mc *ModuleContext) SetLayout(name string) {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.layout.write(name, mc.priority)
}

// Redirect sets the redirect destination, subject to priority tie-breaking.
func (mc *ModuleContext) Redirect(url string) {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.redirect.write(url, mc.priority)
}

// SetRaw marks the response as machine-readable: the coordinator emits the
// body verbatim with the given content type instead of themed markup.
func (mc *ModuleContext) SetRaw(contentType string, body []byte) {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.rawType = contentType
	mc.rc.rawBody = body
}

// TriggerReload asks the coordinator to reload configuration, modules, and
// theme after the dispatch barrier.
func (mc *ModuleContext) TriggerReload() {
	mc.rc.mu.Lock()
	defer mc.rc.mu.Unlock()
	mc.rc.reload = true
}

// Flash records a one-shot message for the next rendered page.
func (mc *ModuleContext) Flash(level, message string) {
	mc.rc.Flash(level, message)
}
