package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/module"
	"github.com/cliftonc/calipso/core/router"
)

// ModuleName is the name the site configuration declares this module under.
const ModuleName = "content"

// Module serves site content: public pages, section listings, JSON output,
// and the admin editing surface.
type Module struct {
	store Store
	log   *slog.Logger
}

// New creates the content module over the given store.
func New(store Store, log *slog.Logger) *Module {
	if log == nil {
		log = logger.Discard()
	}
	return &Module{store: store, log: log}
}

// Factory adapts New to the registry's factory shape.
func Factory(store Store, log *slog.Logger) module.Factory {
	return func() module.Module { return New(store, log) }
}

func (m *Module) Name() string { return ModuleName }

// Init registers the module's routes. It runs again on every configuration
// reload, which is when the alias route picks up newly created pages.
func (m *Module) Init(ctx context.Context, app *module.App) error {
	routes := []struct {
		pattern string
		handler router.Handler
		opts    []router.RouteOption
	}{
		{"GET /", m.list, []router.RouteOption{router.Block("content.list")}},
		{"GET /content", m.list, []router.RouteOption{router.Block("content.list")}},
		{"GET /section/:section", m.list, []router.RouteOption{router.Block("content.list")}},
		{"GET /content/show/:id.:format?", m.show,
			[]router.RouteOption{router.Block("content.show"), router.Last()}},
		{"GET /content/new", m.form,
			[]router.RouteOption{router.Admin(), router.Block("admin.show")}},
		{"POST /content/create", m.create, []router.RouteOption{router.Admin()}},
		{"GET /content/edit/:id", m.form,
			[]router.RouteOption{router.Admin(), router.Block("admin.show")}},
		{"POST /content/update/:id", m.update, []router.RouteOption{router.Admin()}},
		{"POST /content/delete/:id", m.remove, []router.RouteOption{router.Admin()}},
		{"GET /*", m.decorate, nil},
	}
	for _, r := range routes {
		if err := app.Router.AddRoute(r.pattern, r.handler, r.opts...); err != nil {
			return fmt.Errorf("register %s: %w", r.pattern, err)
		}
	}

	if re := m.aliasPattern(ctx); re != nil {
		app.Router.AddRegexRoute(re, m.showByAlias,
			router.Block("content.show"), router.Last())
	}
	return nil
}

// Reload re-registers routes so the alias route reflects current content.
func (m *Module) Reload(ctx context.Context, app *module.App) error {
	return m.Init(ctx, app)
}

// Install seeds the first page so a fresh site is not empty.
func (m *Module) Install(ctx context.Context, app *module.App) error {
	_, err := m.store.GetByAlias(ctx, "welcome")
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return m.store.Create(ctx, &Item{
		Title:  "Welcome",
		Alias:  "welcome",
		Teaser: "Your new site is ready.",
		Body:   "<p>This page was created by the install process. Sign in as the administrator to replace it.</p>",
		Status: StatusPublished,
	})
}

// aliasPattern builds a root-level matcher for every published alias, e.g.
// ^/(welcome|about)/?$ with the alias as the positional capture.
func (m *Module) aliasPattern(ctx context.Context) *regexp.Regexp {
	items, err := m.store.List(ctx, ListFilter{})
	if err != nil {
		m.log.Warn("alias route disabled, listing content failed", logger.Error(err))
		return nil
	}
	if len(items) == 0 {
		return nil
	}

	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = regexp.QuoteMeta(item.Alias)
	}
	return regexp.MustCompile(`(?i)^/(` + strings.Join(quoted, "|") + `)/?$`)
}

func (m *Module) list(mc *dispatch.ModuleContext, route router.Resolved) error {
	items, err := m.store.List(mc.Context(), ListFilter{
		Section: mc.Param("section"),
		Limit:   20,
	})
	if err != nil {
		return err
	}

	html, err := renderFragment("list", map[string]any{
		"Items": items,
		"T":     mc.T,
	})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

func (m *Module) show(mc *dispatch.ModuleContext, route router.Resolved) error {
	id, err := uuid.Parse(mc.Param("id"))
	if err != nil {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}

	item, err := m.store.GetByID(mc.Context(), id)
	if errors.Is(err, ErrNotFound) {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if item.Status != StatusPublished && !mc.IsAdmin() {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}

	if mc.Param("format") == "json" {
		body, err := json.Marshal(item)
		if err != nil {
			return err
		}
		mc.SetRaw("application/json; charset=utf-8", body)
		return nil
	}

	return m.appendItem(mc, route.Block, item)
}

// showByAlias resolves the alias from the route's own capture; the shared
// positional parameter is overwritten by other modules' wildcard routes.
func (m *Module) showByAlias(mc *dispatch.ModuleContext, route router.Resolved) error {
	item, err := m.store.GetByAlias(mc.Context(), route.Params.At(0))
	if errors.Is(err, ErrNotFound) {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	return m.appendItem(mc, route.Block, item)
}

func (m *Module) appendItem(mc *dispatch.ModuleContext, block string, item Item) error {
	html, err := renderFragment("show", map[string]any{
		"Item": item,
		// Content bodies are authored HTML.
		"Body": template.HTML(item.Body),
	})
	if err != nil {
		return err
	}
	mc.AppendBlock(block, html)
	return nil
}

func (m *Module) form(mc *dispatch.ModuleContext, route router.Resolved) error {
	item := Item{Status: StatusDraft}
	action := "/content/create"

	if rawID := mc.Param("id"); rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			mc.SetStatus(http.StatusNotFound)
			return nil
		}
		existing, err := m.store.GetByID(mc.Context(), id)
		if errors.Is(err, ErrNotFound) {
			mc.SetStatus(http.StatusNotFound)
			return nil
		}
		if err != nil {
			return err
		}
		item = existing
		action = "/content/update/" + id.String()
	}

	html, err := renderFragment("form", map[string]any{
		"Item":   item,
		"Action": action,
		"T":      mc.T,
	})
	if err != nil {
		return err
	}
	mc.SetLayout("admin")
	mc.AppendBlock(route.Block, html)
	return nil
}

func (m *Module) create(mc *dispatch.ModuleContext, _ router.Resolved) error {
	item, err := m.itemFromForm(mc)
	if err != nil {
		return err
	}
	if user := mc.User(); user != nil {
		item.AuthorID = user.ID
	}

	if err := m.store.Create(mc.Context(), &item); err != nil {
		if errors.Is(err, ErrDuplicateAlias) {
			mc.Flash("error", mc.T("content.flash.duplicate"))
			mc.Redirect("/content/new")
			return nil
		}
		return err
	}

	m.log.InfoContext(mc.Context(), "content created",
		slog.String("alias", item.Alias), logger.Module(ModuleName))
	mc.Flash("hs", mc.T("content.flash.created"))
	mc.Redirect("/content/show/" + item.ID.String())
	return nil
}

func (m *Module) update(mc *dispatch.ModuleContext, _ router.Resolved) error {
	id, err := uuid.Parse(mc.Param("id"))
	if err != nil {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}

	item, err := m.itemFromForm(mc)
	if err != nil {
		return err
	}
	item.ID = id

	if err := m.store.Update(mc.Context(), &item); err != nil {
		if errors.Is(err, ErrNotFound) {
			mc.SetStatus(http.StatusNotFound)
			return nil
		}
		if errors.Is(err, ErrDuplicateAlias) {
			mc.Flash("error", mc.T("content.flash.duplicate"))
			mc.Redirect("/content/edit/" + id.String())
			return nil
		}
		return err
	}

	mc.Flash("hs", mc.T("content.flash.updated"))
	mc.Redirect("/content/show/" + id.String())
	return nil
}

func (m *Module) remove(mc *dispatch.ModuleContext, _ router.Resolved) error {
	id, err := uuid.Parse(mc.Param("id"))
	if err != nil {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}
	if err := m.store.Delete(mc.Context(), id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	mc.Flash("hs", mc.T("content.flash.deleted"))
	mc.Redirect("/content")
	return nil
}

// decorate contributes the navigation entry on every page.
func (m *Module) decorate(mc *dispatch.ModuleContext, _ router.Resolved) error {
	mc.AppendMenu("main", dispatch.MenuEntry{
		Name:   ModuleName,
		Label:  mc.T("content.menu"),
		Path:   "/content",
		Weight: 10,
	})
	return nil
}

func (m *Module) itemFromForm(mc *dispatch.ModuleContext) (Item, error) {
	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return Item{}, fmt.Errorf("content: parse form: %w", err)
	}

	status := r.PostFormValue("status")
	if status != StatusPublished {
		status = StatusDraft
	}
	return Item{
		Title:   strings.TrimSpace(r.PostFormValue("title")),
		Alias:   strings.TrimSpace(r.PostFormValue("alias")),
		Teaser:  strings.TrimSpace(r.PostFormValue("teaser")),
		Body:    r.PostFormValue("body"),
		Section: strings.TrimSpace(r.PostFormValue("section")),
		Status:  status,
	}, nil
}
