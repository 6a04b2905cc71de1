package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/cookie"
	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/i18n"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/session"
	"github.com/cliftonc/calipso/middleware"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates when absent", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = dispatch.RequestIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("reuses incoming header", func(t *testing.T) {
		t.Parallel()

		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = dispatch.RequestIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "upstream-id")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "upstream-id", seen)
	})
}

func TestLogging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/brew"`)
	assert.Contains(t, out, `"status_code":418`)
	assert.Contains(t, out, `"method":"GET"`)
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	h := middleware.Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func newSessionMiddleware(t *testing.T) func(http.Handler) http.Handler {
	t.Helper()

	jar, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)
	store := session.NewMemoryStore[middleware.VisitorData]()
	mgr := session.NewManager(store, time.Hour, time.Minute)
	return middleware.Session(session.NewTransport(mgr, jar, ""), logger.Discard())
}

func TestSession_AnonymousVisitor(t *testing.T) {
	t.Parallel()

	mw := newSessionMiddleware(t)

	var hadHandle, hadUser bool
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadHandle = middleware.SessionFromContext(r.Context())
		hadUser = dispatch.UserFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, hadHandle)
	assert.False(t, hadUser, "anonymous request must carry no user")
	require.Len(t, rec.Result().Cookies(), 1, "fresh session issues a cookie")
}

func TestSession_LoginRoundTrip(t *testing.T) {
	t.Parallel()

	mw := newSessionMiddleware(t)
	userID := uuid.New()

	login := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle, ok := middleware.SessionFromContext(r.Context())
		require.True(t, ok)
		require.NoError(t, handle.Login(userID, "admin", true))
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/login", nil))
	issued := rec.Result().Cookies()
	require.Len(t, issued, 1)

	var user *dispatch.User
	show := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = dispatch.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(issued[0])
	show.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, user)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.Admin)
}

func TestSession_FlashSurvivesOneRequest(t *testing.T) {
	t.Parallel()

	mw := newSessionMiddleware(t)

	flash := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handle, _ := middleware.SessionFromContext(r.Context())
		handle.Flash("info", "saved")
		w.WriteHeader(http.StatusSeeOther)
	}))

	rec := httptest.NewRecorder()
	flash.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/save", nil))
	issued := rec.Result().Cookies()
	require.Len(t, issued, 1)

	drain := func() []dispatch.Flash {
		var got []dispatch.Flash
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle, _ := middleware.SessionFromContext(r.Context())
			got = handle.Drain()
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(issued[0])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if cs := rec.Result().Cookies(); len(cs) > 0 {
			issued[0] = cs[0]
		}
		return got
	}

	assert.Equal(t, []dispatch.Flash{{Level: "info", Message: "saved"}}, drain())
	assert.Empty(t, drain(), "flash notices are one-shot")
}

func TestLanguage(t *testing.T) {
	t.Parallel()

	catalog, err := i18n.New(
		i18n.WithTranslations("en", map[string]any{"hello": "Hello"}),
		i18n.WithTranslations("de", map[string]any{"hello": "Hallo"}),
	)
	require.NoError(t, err)

	site, err := config.LoadSite(t.TempDir() + "/site.json")
	require.NoError(t, err)
	site.Set(config.KeyLanguage, "de")

	var greeting string
	h := middleware.Language(catalog, site)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		greeting = dispatch.TranslatorFromContext(r.Context())("hello")
	}))

	t.Run("site language is the fallback", func(t *testing.T) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "Hallo", greeting)
	})

	t.Run("header negotiates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en;q=0.9,de;q=0.2")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "Hello", greeting)
	})
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("outer"), tag("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
