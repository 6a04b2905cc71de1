package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/module"
	"github.com/cliftonc/calipso/core/router"
)

// ModuleName is the name the module registers under.
const ModuleName = "assets"

// maxUploadBytes bounds multipart parsing memory for uploads.
const maxUploadBytes = 32 << 20

// Module serves uploaded assets from a storage backend and gives admins an
// upload/delete manager.
type Module struct {
	backend Backend
	log     *slog.Logger
}

// New creates the assets module over the given backend.
func New(backend Backend, log *slog.Logger) *Module {
	return &Module{backend: backend, log: log}
}

// Factory adapts New to the registry's factory shape.
func Factory(backend Backend, log *slog.Logger) module.Factory {
	return func() module.Module { return New(backend, log) }
}

func (m *Module) Name() string { return ModuleName }

// Init registers the module's routes.
func (m *Module) Init(ctx context.Context, app *module.App) error {
	routes := []struct {
		pattern string
		handler router.Handler
		opts    []router.RouteOption
	}{
		{"GET /assets/*", m.serve, []router.RouteOption{router.Last()}},
		{"GET /assets", m.manager,
			[]router.RouteOption{router.Admin(), router.Block("admin.show"), router.Last()}},
		{"POST /assets/upload", m.upload, []router.RouteOption{router.Admin()}},
		{"POST /assets/delete", m.remove, []router.RouteOption{router.Admin()}},
	}
	for _, r := range routes {
		if err := app.Router.AddRoute(r.pattern, r.handler, r.opts...); err != nil {
			return fmt.Errorf("register %s: %w", r.pattern, err)
		}
	}
	return nil
}

// serve streams one asset as a raw response, bypassing theme composition.
// The key comes from the route's own wildcard capture: other modules'
// wildcard routes write the shared positional parameter concurrently.
func (m *Module) serve(mc *dispatch.ModuleContext, route router.Resolved) error {
	key := route.Params.At(0)

	rd, contentType, err := m.backend.Get(mc.Context(), key)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPath) {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	defer rd.Close()

	body, err := io.ReadAll(rd)
	if err != nil {
		return fmt.Errorf("assets: read %s: %w", key, err)
	}
	mc.SetRaw(contentType, body)
	return nil
}

func (m *Module) manager(mc *dispatch.ModuleContext, route router.Resolved) error {
	entries, err := m.backend.List(mc.Context(), "")
	if err != nil {
		return err
	}

	html, err := renderFragment("manager", map[string]any{
		"Entries": entries,
		"T":       mc.T,
	})
	if err != nil {
		return err
	}
	mc.SetLayout("admin")
	mc.AppendBlock(route.Block, html)
	return nil
}

func (m *Module) upload(mc *dispatch.ModuleContext, _ router.Resolved) error {
	r := mc.Request()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		mc.Flash("error", mc.T("assets.flash.badupload"))
		mc.Redirect("/assets")
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		mc.Flash("error", mc.T("assets.flash.badupload"))
		mc.Redirect("/assets")
		return nil
	}
	defer file.Close()

	key := sanitizeFilename(header.Filename)
	if folder := strings.Trim(r.PostFormValue("folder"), "/"); folder != "" {
		key = folder + "/" + key
	}

	contentType := header.Header.Get("Content-Type")
	if err := m.backend.Put(mc.Context(), key, contentType, file); err != nil {
		if errors.Is(err, ErrInvalidPath) {
			mc.Flash("error", mc.T("assets.flash.badupload"))
			mc.Redirect("/assets")
			return nil
		}
		return err
	}

	m.log.InfoContext(mc.Context(), "asset uploaded",
		slog.String("path", key), slog.Int64("size", header.Size), logger.Module(ModuleName))
	mc.Flash("hs", mc.T("assets.flash.uploaded"))
	mc.Redirect("/assets")
	return nil
}

func (m *Module) remove(mc *dispatch.ModuleContext, _ router.Resolved) error {
	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("assets: parse form: %w", err)
	}

	key := r.PostFormValue("path")
	if err := m.backend.Delete(mc.Context(), key); err != nil &&
		!errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidPath) {
		return err
	}

	mc.Flash("hs", mc.T("assets.flash.deleted"))
	mc.Redirect("/assets")
	return nil
}

// sanitizeFilename reduces an uploaded filename to a safe storage key part.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}
