package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/module"
	"github.com/cliftonc/calipso/core/router"
	"github.com/cliftonc/calipso/modules/user"
)

// ModuleName is the name the module registers under.
const ModuleName = "admin"

// lockedModules cannot be disabled through the config form; losing any of
// them would lock the administrator out of the site.
var lockedModules = map[string]bool{ModuleName: true, user.ModuleName: true}

var logLevels = []string{"debug", "info", "warn", "error"}

// Module provides the site configuration form, the first-run install flow,
// and the admin menu. It runs at the highest dispatch priority so its status
// and layout writes win ties against content modules.
type Module struct {
	site      *config.Site
	users     user.Store
	themesDir string
	log       *slog.Logger
}

// New creates the admin module. themesDir is scanned for installable themes;
// it may be empty, which leaves only the active theme selectable.
func New(site *config.Site, users user.Store, themesDir string, log *slog.Logger) *Module {
	return &Module{site: site, users: users, themesDir: themesDir, log: log}
}

// Factory adapts New to the registry's factory shape.
func Factory(site *config.Site, users user.Store, themesDir string, log *slog.Logger) module.Factory {
	return func() module.Module { return New(site, users, themesDir, log) }
}

func (m *Module) Name() string { return ModuleName }

// Priority puts the admin module first in dispatch tie-breaking.
func (m *Module) Priority() int { return module.PriorityFirst }

// Init registers the module's routes.
func (m *Module) Init(ctx context.Context, app *module.App) error {
	routes := []struct {
		pattern string
		handler router.Handler
		opts    []router.RouteOption
	}{
		{"GET /admin", m.configForm,
			[]router.RouteOption{router.Admin(), router.Block("admin.show"), router.Last()}},
		{"POST /admin", m.saveConfig, []router.RouteOption{router.Admin()}},
		{"GET /admin/install", m.installForm,
			[]router.RouteOption{router.Block("admin.show"), router.Last()}},
		{"POST /admin/install", m.install, nil},
		{"GET /*", m.decorate, nil},
	}
	for _, r := range routes {
		if err := app.Router.AddRoute(r.pattern, r.handler, r.opts...); err != nil {
			return fmt.Errorf("register %s: %w", r.pattern, err)
		}
	}
	return nil
}

func (m *Module) configForm(mc *dispatch.ModuleContext, route router.Resolved) error {
	type moduleRow struct {
		Name    string
		Enabled bool
		Locked  bool
	}
	var rows []moduleRow
	for _, ms := range m.site.Modules() {
		rows = append(rows, moduleRow{Name: ms.Name, Enabled: ms.Enabled, Locked: lockedModules[ms.Name]})
	}

	html, err := renderFragment("config", map[string]any{
		"Title":     m.site.Get(config.KeyTitle),
		"Theme":     m.site.Get(config.KeyTheme),
		"Themes":    m.availableThemes(),
		"Language":  m.site.Get(config.KeyLanguage),
		"LogLevel":  m.site.Get(config.KeyLogLevel),
		"LogLevels": logLevels,
		"Modules":   rows,
		"T":         mc.T,
	})
	if err != nil {
		return err
	}
	mc.SetLayout("admin")
	mc.AppendBlock(route.Block, html)
	return nil
}

// saveConfig applies the submitted configuration, persists it, and asks the
// coordinator for a full reload after the dispatch barrier.
func (m *Module) saveConfig(mc *dispatch.ModuleContext, _ router.Resolved) error {
	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("admin: parse form: %w", err)
	}

	for _, key := range []string{config.KeyTitle, config.KeyTheme, config.KeyLanguage, config.KeyLogLevel} {
		if v := strings.TrimSpace(r.PostFormValue(key)); v != "" {
			m.site.Set(key, v)
		}
	}

	// Unchecked checkboxes are absent from the form, so every unlocked
	// declared module gets its flag rewritten.
	for _, ms := range m.site.Modules() {
		if lockedModules[ms.Name] {
			continue
		}
		_, checked := r.PostForm["module."+ms.Name]
		m.site.EnableModule(ms.Name, checked)
	}

	if err := m.site.Save(mc.Context()); err != nil {
		return err
	}

	m.log.InfoContext(mc.Context(), "site configuration saved", logger.Module(ModuleName))
	mc.TriggerReload()
	mc.Flash("hs", mc.T("admin.flash.saved"))
	mc.Redirect("/admin")
	return nil
}

func (m *Module) installForm(mc *dispatch.ModuleContext, route router.Resolved) error {
	if m.site.Installed() {
		mc.Redirect("/")
		return nil
	}

	html, err := renderFragment("install", map[string]any{
		"Title": m.site.Get(config.KeyTitle),
		"T":     mc.T,
	})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

// install completes the first-run flow: it creates (or claims) the
// administrator account, marks the site installed, and persists the config.
func (m *Module) install(mc *dispatch.ModuleContext, _ router.Resolved) error {
	if m.site.Installed() {
		mc.Redirect("/")
		return nil
	}

	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("admin: parse form: %w", err)
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		mc.Flash("error", mc.T("admin.flash.badinstall"))
		mc.Redirect(dispatch.InstallPath)
		return nil
	}

	if err := m.upsertAdmin(mc.Context(), username, password); err != nil {
		return err
	}

	if title := strings.TrimSpace(r.PostFormValue("title")); title != "" {
		m.site.Set(config.KeyTitle, title)
	}
	m.site.SetInstalled(true)
	if err := m.site.Save(mc.Context()); err != nil {
		return err
	}

	m.log.InfoContext(mc.Context(), "site installed",
		slog.String("admin", username), logger.Module(ModuleName))
	mc.TriggerReload()
	mc.Flash("hs", mc.T("admin.flash.installed"))
	mc.Redirect("/")
	return nil
}

// upsertAdmin claims an existing account (the seeded default administrator
// in particular) or creates a fresh one.
func (m *Module) upsertAdmin(ctx context.Context, username, password string) error {
	acct, err := m.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		acct.Admin = true
		if err := acct.SetPassword(password); err != nil {
			return err
		}
		return m.users.Update(ctx, &acct)
	case errors.Is(err, user.ErrNotFound):
		acct = user.Account{Username: username, Admin: true}
		if err := acct.SetPassword(password); err != nil {
			return err
		}
		return m.users.Create(ctx, &acct)
	default:
		return err
	}
}

// decorate contributes the admin menu on every page, for admins only.
func (m *Module) decorate(mc *dispatch.ModuleContext, _ router.Resolved) error {
	if !mc.IsAdmin() {
		return nil
	}

	mc.AppendMenu("admin", dispatch.MenuEntry{
		Name:   ModuleName,
		Label:  mc.T("admin.menu.settings"),
		Path:   "/admin",
		Weight: 0,
	})
	for _, ms := range m.site.Modules() {
		if !ms.Enabled {
			continue
		}
		mc.AppendMenu("admin", dispatch.MenuEntry{
			Name:   ms.Name,
			Label:  ms.Name,
			Path:   "/" + ms.Name,
			Weight: 10,
		})
	}
	return nil
}

// availableThemes lists theme directories containing a theme.json. The
// active theme is always selectable even when the scan fails.
func (m *Module) availableThemes() []string {
	active := m.site.Get(config.KeyTheme)
	themes := []string{active}

	if m.themesDir == "" {
		return themes
	}
	entries, err := os.ReadDir(m.themesDir)
	if err != nil {
		m.log.Warn("theme scan failed", logger.Error(err), logger.Module(ModuleName))
		return themes
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == active {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.themesDir, e.Name(), "theme.json")); err == nil {
			themes = append(themes, e.Name())
		}
	}
	return themes
}
