package i18n_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/i18n"
)

func TestCatalog_T(t *testing.T) {
	t.Parallel()

	c, err := i18n.New(
		i18n.WithTranslations("en", map[string]any{
			"greeting": "Hello, %{name}!",
			"nav": map[string]any{
				"home":  "Home",
				"admin": "Administration",
			},
		}),
		i18n.WithTranslations("de", map[string]any{
			"greeting": "Hallo, %{name}!",
		}),
	)
	require.NoError(t, err)

	t.Run("direct hit with placeholder", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Hallo, Clifton!", c.T("de", "greeting", i18n.M{"name": "Clifton"}))
	})

	t.Run("nested keys are flattened", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Administration", c.T("en", "nav.admin"))
	})

	t.Run("falls back to default language", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Home", c.T("de", "nav.home"))
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "nav.missing", c.T("de", "nav.missing"))
	})

	t.Run("unknown placeholder stays verbatim", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Hello, %{name}!", c.T("en", "greeting"))
	})
}

func TestCatalog_MissingKeyHandler(t *testing.T) {
	t.Parallel()

	var gotLang, gotKey string
	c, err := i18n.New(
		i18n.WithTranslations("en", map[string]any{"known": "Known"}),
		i18n.WithMissingKeyHandler(func(lang, key string) {
			gotLang, gotKey = lang, key
		}),
	)
	require.NoError(t, err)

	c.T("fr", "absent")
	assert.Equal(t, "fr", gotLang)
	assert.Equal(t, "absent", gotKey)

	// A default-language fallback hit is not a miss.
	gotKey = ""
	c.T("fr", "known")
	assert.Empty(t, gotKey)
}

func TestCatalog_Languages(t *testing.T) {
	t.Parallel()

	c, err := i18n.New(
		i18n.WithDefaultLanguage("de"),
		i18n.WithTranslations("en", map[string]any{"a": "a"}),
		i18n.WithTranslations("fr", map[string]any{"a": "a"}),
		i18n.WithTranslations("de", map[string]any{"a": "a"}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"de", "en", "fr"}, c.Languages())
	assert.Equal(t, "de", c.DefaultLanguage())
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"),
		[]byte(`{"site":{"title":"My Site"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.json"),
		[]byte(`{"site":{"title":"Meine Seite"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a translation file"), 0o644))

	c, err := i18n.New(i18n.LoadDir(dir))
	require.NoError(t, err)

	assert.Equal(t, "Meine Seite", c.T("de", "site.title"))
	assert.Equal(t, "My Site", c.T("en", "site.title"))
	assert.Equal(t, []string{"en", "de"}, c.Languages())
}

func TestLoadDir_MissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	c, err := i18n.New(i18n.LoadDir(filepath.Join(t.TempDir(), "nope")))
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, c.Languages())
}

func TestLoadDir_MalformedFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte("{"), 0o644))

	_, err := i18n.New(i18n.LoadDir(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, i18n.ErrBadOption)
}

func TestTranslator(t *testing.T) {
	t.Parallel()

	c, err := i18n.New(
		i18n.WithTranslations("en", map[string]any{"bye": "Goodbye"}),
		i18n.WithTranslations("de", map[string]any{"bye": "Tschüss"}),
	)
	require.NoError(t, err)

	tr := i18n.NewTranslator(c, "de")
	assert.Equal(t, "de", tr.Language())
	assert.Equal(t, "Tschüss", tr.T("bye"))
	assert.Equal(t, "Tschüss", tr.Func()("bye"))

	// Empty language binds the default.
	assert.Equal(t, "en", i18n.NewTranslator(c, "").Language())
}

func TestParseAcceptLanguage(t *testing.T) {
	t.Parallel()

	available := []string{"en", "de", "fr"}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header picks first available", "", "en"},
		{"exact match", "de", "de"},
		{"quality ordering", "fr;q=0.7,de;q=0.9", "de"},
		{"regional variant matches base", "de-AT,en;q=0.5", "de"},
		{"no match picks first available", "ja,ko;q=0.8", "en"},
		{"wildcard ignored", "*", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, i18n.ParseAcceptLanguage(tt.header, available))
		})
	}

	assert.Empty(t, i18n.ParseAcceptLanguage("en", nil))
}
