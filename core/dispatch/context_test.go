package dispatch_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/dispatch"
)

type stubFlasher struct {
	pending []dispatch.Flash
}

func (s *stubFlasher) Flash(level, message string) {
	s.pending = append(s.pending, dispatch.Flash{Level: level, Message: message})
}

func (s *stubFlasher) Drain() []dispatch.Flash {
	out := s.pending
	s.pending = nil
	return out
}

func TestRequestContext_Defaults(t *testing.T) {
	t.Parallel()
	rc := dispatch.NewRequestContext(httptest.NewRequest("GET", "/x", nil))

	assert.False(t, rc.RouteMatched())
	assert.False(t, rc.ReloadRequested())
	_, set := rc.Status()
	assert.False(t, set)
	assert.Empty(t, rc.Layout())
	_, redirected := rc.RedirectTarget()
	assert.False(t, redirected)
	_, _, raw := rc.Raw()
	assert.False(t, raw)
	assert.Nil(t, rc.User())
	assert.NotEmpty(t, rc.ID())
	assert.Equal(t, "some.key", rc.T("some.key"), "missing translator falls back to the key")
}

func TestRequestContext_ContextInjection(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest("GET", "/x", nil)
	ctx := dispatch.WithUser(req.Context(), &dispatch.User{Username: "root", Admin: true})
	ctx = dispatch.WithRequestID(ctx, "req-123")
	ctx = dispatch.WithTranslator(ctx, func(key string) string { return "tr:" + key })
	flasher := &stubFlasher{}
	ctx = dispatch.WithFlasher(ctx, flasher)

	rc := dispatch.NewRequestContext(req.WithContext(ctx))

	require.NotNil(t, rc.User())
	assert.True(t, rc.User().Admin)
	assert.Equal(t, "req-123", rc.ID())
	assert.Equal(t, "tr:hello", rc.T("hello"))

	rc.Flash("info", "saved")
	flashes := rc.Flashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "info", flashes[0].Level)
	assert.Empty(t, rc.Flashes(), "flashes drain once")
}

func TestModuleContext_ScalarPriorityTieBreak(t *testing.T) {
	t.Parallel()
	rc := dispatch.NewRequestContext(httptest.NewRequest("GET", "/x", nil))

	low := rc.ForModule("content", 0)
	high := rc.ForModule("admin", 100)

	// Low writes first, high overrides.
	low.SetLayout("plain")
	high.SetLayout("admin")
	assert.Equal(t, "admin", rc.Layout())

	// High wrote first; low cannot override.
	high.SetStatus(500)
	low.SetStatus(200)
	status, ok := rc.Status()
	require.True(t, ok)
	assert.Equal(t, 500, status)

	// Equal priority: first write wins.
	peer := rc.ForModule("user", 0)
	low.Redirect("/first")
	peer.Redirect("/second")
	target, ok := rc.RedirectTarget()
	require.True(t, ok)
	assert.Equal(t, "/first", target)
}

func TestModuleContext_SetParams(t *testing.T) {
	t.Parallel()
	rc := dispatch.NewRequestContext(httptest.NewRequest("GET", "/show/42?format=json", nil))
	mc := rc.ForModule("content", 0)

	mc.SetParams(map[string]string{"id": "42", "format": "xml"}, []string{"extra"})

	assert.Equal(t, "42", rc.Param("id"))
	assert.Equal(t, "json", rc.Param("format"), "query string overrides path capture")
	assert.Equal(t, "extra", rc.Param("0"))
}

func TestModuleContext_Sink(t *testing.T) {
	t.Parallel()
	rc := dispatch.NewRequestContext(httptest.NewRequest("GET", "/x", nil))
	mc := rc.ForModule("content", 0)

	mc.AppendBlock("content.main", "<p>hi</p>")
	mc.AppendMenu("main", dispatch.MenuEntry{Name: "home", Path: "/"})
	mc.MarkRouteMatched()
	mc.TriggerReload()
	mc.SetRaw("application/json", []byte(`{"ok":true}`))

	assert.Equal(t, []string{"<p>hi</p>"}, rc.Blocks().Get("content.main"))
	assert.Len(t, rc.Menus().Get("main"), 1)
	assert.True(t, rc.RouteMatched())
	assert.True(t, rc.ReloadRequested())

	contentType, body, ok := rc.Raw()
	require.True(t, ok)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestModuleContext_IsAdmin(t *testing.T) {
	t.Parallel()
	anon := dispatch.NewRequestContext(httptest.NewRequest("GET", "/x", nil))
	assert.False(t, anon.ForModule("m", 0).IsAdmin())

	req := httptest.NewRequest("GET", "/x", nil)
	req = req.WithContext(dispatch.WithUser(req.Context(), &dispatch.User{Username: "root", Admin: true}))
	admin := dispatch.NewRequestContext(req)
	assert.True(t, admin.ForModule("m", 0).IsAdmin())
}
