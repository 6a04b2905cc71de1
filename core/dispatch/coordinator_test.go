package dispatch_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/dispatch"
)

// stubModule satisfies dispatch.RoutedModule with a plain func.
type stubModule struct {
	name     string
	priority int
	route    func(mc *dispatch.ModuleContext) error
}

func (m *stubModule) Name() string     { return m.name }
func (m *stubModule) Priority() int    { return m.priority }
func (m *stubModule) Route(mc *dispatch.ModuleContext) error {
	if m.route == nil {
		return nil
	}
	return m.route(mc)
}

// stubRenderer records which terminal render ran and emits a marker body.
type stubRenderer struct {
	rendered   atomic.Int32
	notFound   atomic.Int32
	errored    atomic.Int32
	renderErr  error
	lastLayout atomic.Value
}

func (r *stubRenderer) Render(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	if r.renderErr != nil {
		return r.renderErr
	}
	r.lastLayout.Store(rc.Layout())
	r.rendered.Add(1)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "page:%s", strings.Join(rc.Blocks().Get("content.main"), "|"))
	return nil
}

func (r *stubRenderer) RenderNotFound(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	r.notFound.Add(1)
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "themed 404")
	return nil
}

func (r *stubRenderer) RenderError(w http.ResponseWriter, rc *dispatch.RequestContext) error {
	r.errored.Add(1)
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprint(w, "themed 500")
	return nil
}

func modules(mods ...dispatch.RoutedModule) func() []dispatch.RoutedModule {
	return func() []dispatch.RoutedModule { return mods }
}

func TestCoordinator_RendersAccumulatedBlocks(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "a", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.AppendBlock("content.main", "A")
			return nil
		}},
		&stubModule{name: "b", route: func(mc *dispatch.ModuleContext) error {
			mc.AppendBlock("content.main", "B")
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A")
	assert.Contains(t, rec.Body.String(), "B")
	assert.Equal(t, int32(1), renderer.rendered.Load())
}

func TestCoordinator_BarrierWaitsForAll(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	var slowDone atomic.Bool
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "fast", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			return nil
		}},
		&stubModule{name: "slow", route: func(mc *dispatch.ModuleContext) error {
			time.Sleep(50 * time.Millisecond)
			mc.AppendBlock("content.main", "slow-block")
			slowDone.Store(true)
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	assert.True(t, slowDone.Load(), "coordinator must join on all modules, not first-to-finish")
	assert.Contains(t, rec.Body.String(), "slow-block")
}

func TestCoordinator_NotFoundWhenNothingMatched(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	// A wildcard decorator runs but must not claim the route.
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "decorator", route: func(mc *dispatch.ModuleContext) error {
			mc.AppendBlock("user.login", "login box")
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/totally-unknown-path", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "themed 404", rec.Body.String())
	assert.Equal(t, int32(1), renderer.notFound.Load())
}

func TestCoordinator_ErrorStatusRendersErrorPage(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "boom", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.SetStatus(http.StatusInternalServerError)
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "themed 500", rec.Body.String())
}

func TestCoordinator_HandlerErrorDoesNotAbortRequest(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "broken", route: func(mc *dispatch.ModuleContext) error {
			return errors.New("storage down")
		}},
		&stubModule{name: "fine", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.AppendBlock("content.main", "still here")
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "still here")
}

func TestCoordinator_PanickingHandlerRecovered(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "panicky", route: func(mc *dispatch.ModuleContext) error {
			panic("unexpected")
		}},
		&stubModule{name: "fine", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCoordinator_Redirect(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "auth", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.Redirect("/user/login")
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/login", rec.Header().Get("Location"))
	assert.Zero(t, renderer.rendered.Load())
}

func TestCoordinator_RawResponseEmittedVerbatim(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "api", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.SetRaw("application/json", []byte(`{"id":"42"}`))
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/content/show/42.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
	assert.Zero(t, renderer.rendered.Load(), "raw responses bypass theme composition")
}

func TestCoordinator_InstallPendingOverridesEverything(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "content", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			return nil
		}},
	), renderer, dispatch.WithInstalledCheck(func() bool { return false }))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, dispatch.InstallPath, rec.Header().Get("Location"))

	// The install flow itself stays reachable.
	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", dispatch.InstallPath, nil))
	assert.NotEqual(t, dispatch.InstallPath, rec.Header().Get("Location"))
}

type stubReloader struct {
	calls atomic.Int32
	err   error
}

func (r *stubReloader) Reload(_ *dispatch.ReloadContext) error {
	r.calls.Add(1)
	return r.err
}

func TestCoordinator_ReloadTriggered(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	reloader := &stubReloader{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "admin", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.TriggerReload()
			return nil
		}},
	), renderer, dispatch.WithReloader(reloader))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/save", nil))
	assert.Equal(t, int32(1), reloader.calls.Load())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCoordinator_ReloadFailureFlashesAndKeepsServing(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	reloader := &stubReloader{err: errors.New("bad config")}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "admin", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.TriggerReload()
			return nil
		}},
	), renderer, dispatch.WithReloader(reloader))

	flasher := &stubFlasher{}
	req := httptest.NewRequest("GET", "/admin/save", nil)
	req = req.WithContext(dispatch.WithFlasher(req.Context(), flasher))

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "failed reload keeps the prior configuration serving")
	require.Len(t, flasher.pending, 1)
	assert.Equal(t, "error", flasher.pending[0].Level)
}

func TestCoordinator_RenderFailureFallsBackToPlain500(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{renderErr: errors.New("template exploded")}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "content", route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			return nil
		}},
	), renderer)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCoordinator_ScalarTieBreakAcrossModules(t *testing.T) {
	t.Parallel()
	renderer := &stubRenderer{}
	c := dispatch.NewCoordinator(modules(
		&stubModule{name: "content", priority: 0, route: func(mc *dispatch.ModuleContext) error {
			mc.MarkRouteMatched()
			mc.SetLayout("plain")
			return nil
		}},
		&stubModule{name: "admin", priority: 100, route: func(mc *dispatch.ModuleContext) error {
			mc.SetLayout("admin")
			return nil
		}},
	), renderer)

	// Run repeatedly: completion order varies, the outcome must not.
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		c.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "admin", renderer.lastLayout.Load(),
			"higher-priority module wins the layout regardless of completion order")
	}
}
