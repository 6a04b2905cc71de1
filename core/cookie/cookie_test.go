package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/cookie"
)

var testSecret = strings.Repeat("s", 32)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	t.Run("no secrets", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("empty secrets filtered", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New([]string{"", ""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("short secret", func(t *testing.T) {
		t.Parallel()
		_, err := cookie.New([]string{"too-short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})
}

func TestJar_RoundTrip(t *testing.T) {
	t.Parallel()

	jar, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	jar.Set(rec, "sid", "token-value", 3600)

	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	set := res.Cookies()[0]
	assert.True(t, set.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, set.SameSite)
	assert.NotEqual(t, "token-value", set.Value, "cookie value must be signed")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(set)

	got, err := jar.Get(req, "sid")
	require.NoError(t, err)
	assert.Equal(t, "token-value", got)
}

func TestJar_Get_Errors(t *testing.T) {
	t.Parallel()

	jar, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, err := jar.Get(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})

	t.Run("unsigned value", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "bare"})
		_, err := jar.Get(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		jar.Set(rec, "sid", "original", 60)
		set := rec.Result().Cookies()[0]

		forged, err := cookie.New([]string{strings.Repeat("x", 32)})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(set)
		_, err = forged.Get(req, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestJar_SecretRotation(t *testing.T) {
	t.Parallel()

	oldJar, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	oldJar.Set(rec, "sid", "survives-rotation", 60)
	set := rec.Result().Cookies()[0]

	// New primary secret, old secret kept for verification.
	rotated, err := cookie.New([]string{strings.Repeat("n", 32), testSecret})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(set)
	got, err := rotated.Get(req, "sid")
	require.NoError(t, err)
	assert.Equal(t, "survives-rotation", got)
}

func TestJar_Delete(t *testing.T) {
	t.Parallel()

	jar, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	jar.Delete(rec, "sid")

	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, -1, res.Cookies()[0].MaxAge)
	assert.Empty(t, res.Cookies()[0].Value)
}
