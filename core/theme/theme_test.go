package theme_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/theme"
)

// writeTheme lays out a theme directory from a spec plus template sources.
func writeTheme(t *testing.T, spec theme.Spec, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	raw, err := json.Marshal(spec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.json"), raw, 0o644))

	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func minimalSpec() theme.Spec {
	return theme.Spec{
		Name: "test",
		Layouts: map[string]theme.LayoutSpec{
			"default": {
				Template: "layout.html",
				Sections: map[string]theme.SectionSpec{
					"body": {Template: "body.html", Blocks: []string{"content.main"}},
				},
			},
		},
	}
}

func minimalFiles() map[string]string {
	return map[string]string{
		"layout.html": `<html><body>{{.Sections.body}}</body></html>`,
		"body.html":   `<main>{{.Content}}</main>`,
	}
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()
	dir := writeTheme(t, minimalSpec(), minimalFiles())

	th, err := theme.Load(dir, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "test", th.Name())
	assert.Equal(t, []string{"default"}, th.Layouts())
	assert.NotNil(t, th.Section("default", "body"))
}

func TestLoad_MissingThemeJSON(t *testing.T) {
	t.Parallel()
	_, err := theme.Load(t.TempDir(), logger.Discard())
	require.ErrorIs(t, err, theme.ErrThemeUnreadable)
}

func TestLoad_InvalidThemeJSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theme.json"), []byte("{oops"), 0o644))

	_, err := theme.Load(dir, logger.Discard())
	require.ErrorIs(t, err, theme.ErrThemeInvalid)
}

func TestLoad_NoDefaultLayoutDeclared(t *testing.T) {
	t.Parallel()
	spec := theme.Spec{
		Name:    "broken",
		Layouts: map[string]theme.LayoutSpec{"admin": {Template: "layout.html"}},
	}
	dir := writeTheme(t, spec, minimalFiles())

	_, err := theme.Load(dir, logger.Discard())
	require.ErrorIs(t, err, theme.ErrDefaultLayoutMissing)
}

func TestLoad_DefaultLayoutTemplateUnreadableIsFatal(t *testing.T) {
	t.Parallel()
	files := minimalFiles()
	delete(files, "layout.html")
	dir := writeTheme(t, minimalSpec(), files)

	_, err := theme.Load(dir, logger.Discard())
	require.ErrorIs(t, err, theme.ErrDefaultLayoutMissing)
}

func TestLoad_MissingSectionTemplateNonFatal(t *testing.T) {
	t.Parallel()
	spec := minimalSpec()
	spec.Layouts["default"].Sections["extra"] = theme.SectionSpec{Template: "nope.html"}
	dir := writeTheme(t, spec, minimalFiles())

	th, err := theme.Load(dir, logger.Discard())
	require.NoError(t, err)
	assert.Nil(t, th.Section("default", "extra"), "missing section template absent from cache")
	assert.NotNil(t, th.Section("default", "body"))
}

func TestLoad_BrokenNonDefaultLayoutDisabled(t *testing.T) {
	t.Parallel()
	spec := minimalSpec()
	spec.Layouts["admin"] = theme.LayoutSpec{Template: "admin.html"}
	dir := writeTheme(t, spec, minimalFiles()) // admin.html never written

	th, err := theme.Load(dir, logger.Discard())
	require.NoError(t, err)

	name, _ := th.Resolve("admin", logger.Discard())
	assert.Equal(t, "default", name, "disabled layout falls back to default")
}

func TestSection_FallsBackToDefault(t *testing.T) {
	t.Parallel()
	spec := minimalSpec()
	spec.Layouts["admin"] = theme.LayoutSpec{
		Template: "admin.html",
		Sections: map[string]theme.SectionSpec{
			"body": {Template: "admin-body.html", Blocks: []string{"admin.show"}},
		},
	}
	files := minimalFiles()
	files["admin.html"] = `<html class="admin"><body>{{.Sections.body}}</body></html>`
	dir := writeTheme(t, spec, files) // admin-body.html never written

	th, err := theme.Load(dir, logger.Discard())
	require.NoError(t, err)

	// admin.body failed to compile, so the lookup falls back to the
	// default layout's body section.
	require.NotNil(t, th.Section("admin", "body"))
	assert.Same(t, th.Section("default", "body"), th.Section("admin", "body"))
}

func TestResolve_UnknownLayoutFallsBack(t *testing.T) {
	t.Parallel()
	dir := writeTheme(t, minimalSpec(), minimalFiles())
	th, err := theme.Load(dir, logger.Discard())
	require.NoError(t, err)

	name, layout := th.Resolve("fancy", logger.Discard())
	assert.Equal(t, "default", name)
	assert.Contains(t, layout.Sections, "body")

	name, _ = th.Resolve("", logger.Discard())
	assert.Equal(t, "default", name)
}
