package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/module"
	"github.com/cliftonc/calipso/core/router"
	"github.com/cliftonc/calipso/middleware"
)

// ModuleName is the name the module registers under.
const ModuleName = "user"

// DefaultAdminUsername and DefaultAdminPassword seed the fallback
// administrator when install runs against an empty user store. The install
// form replaces them with real credentials.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "password"
)

// Module provides login, logout, registration, and public profiles, and
// decorates every page with the sign-in box.
type Module struct {
	store Store
	log   *slog.Logger
}

// New creates the user module over the given account store.
func New(store Store, log *slog.Logger) *Module {
	return &Module{store: store, log: log}
}

// Factory adapts New to the registry's factory shape.
func Factory(store Store, log *slog.Logger) module.Factory {
	return func() module.Module { return New(store, log) }
}

func (m *Module) Name() string { return ModuleName }

// Init registers the module's routes.
func (m *Module) Init(ctx context.Context, app *module.App) error {
	routes := []struct {
		pattern string
		handler router.Handler
		opts    []router.RouteOption
	}{
		{"GET /user/login", m.loginForm,
			[]router.RouteOption{router.Block("user.login"), router.Last()}},
		{"POST /user/login", m.login, nil},
		{"GET /user/logout", m.logout, nil},
		{"GET /user/register", m.registerForm,
			[]router.RouteOption{router.Block("user.register"), router.Last()}},
		{"POST /user/register", m.register, nil},
		{"GET /user/profile/:username", m.profile,
			[]router.RouteOption{router.Block("user.profile"), router.Last()}},
		{"GET /*", m.decorate, []router.RouteOption{router.Block("user.box")}},
	}
	for _, r := range routes {
		if err := app.Router.AddRoute(r.pattern, r.handler, r.opts...); err != nil {
			return fmt.Errorf("register %s: %w", r.pattern, err)
		}
	}
	return nil
}

// Install seeds a fallback administrator so a fresh site can be signed into.
// The install form is expected to replace the default credentials.
func (m *Module) Install(ctx context.Context, app *module.App) error {
	accounts, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	for _, acct := range accounts {
		if acct.Admin {
			return nil
		}
	}

	admin := Account{Username: DefaultAdminUsername, Admin: true}
	if err := admin.SetPassword(DefaultAdminPassword); err != nil {
		return err
	}
	if err := m.store.Create(ctx, &admin); err != nil {
		return err
	}
	m.log.Warn("seeded default administrator, change the password",
		slog.String("username", DefaultAdminUsername), logger.Module(ModuleName))
	return nil
}

func (m *Module) loginForm(mc *dispatch.ModuleContext, route router.Resolved) error {
	if mc.User() != nil {
		mc.Redirect("/")
		return nil
	}
	html, err := renderFragment("loginform", map[string]any{"T": mc.T})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

func (m *Module) login(mc *dispatch.ModuleContext, _ router.Resolved) error {
	username, password, err := credentialsFromForm(mc)
	if err != nil {
		return err
	}

	acct, err := m.store.GetByUsername(mc.Context(), username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	// Run the comparison even for unknown usernames so both failure modes
	// take bcrypt time.
	if err != nil || !acct.CheckPassword(password) {
		var dummy Account
		_ = dummy.CheckPassword(password)
		m.log.InfoContext(mc.Context(), "login rejected",
			slog.String("username", username), logger.Module(ModuleName))
		mc.Flash("error", mc.T("user.flash.badlogin"))
		mc.Redirect(router.LoginPath)
		return nil
	}

	if handle, ok := middleware.SessionFromContext(mc.Context()); ok {
		if err := handle.Login(acct.ID, acct.Username, acct.Admin); err != nil {
			return fmt.Errorf("user: bind session: %w", err)
		}
	}

	m.log.InfoContext(mc.Context(), "login",
		slog.String("username", acct.Username), logger.Module(ModuleName))
	mc.Flash("hs", mc.T("user.flash.welcome"))
	mc.Redirect("/")
	return nil
}

func (m *Module) logout(mc *dispatch.ModuleContext, _ router.Resolved) error {
	if handle, ok := middleware.SessionFromContext(mc.Context()); ok {
		if err := handle.Logout(); err != nil {
			return fmt.Errorf("user: logout: %w", err)
		}
	}
	mc.Flash("hs", mc.T("user.flash.loggedout"))
	mc.Redirect("/")
	return nil
}

func (m *Module) registerForm(mc *dispatch.ModuleContext, route router.Resolved) error {
	if mc.User() != nil {
		mc.Redirect("/")
		return nil
	}
	html, err := renderFragment("registerform", map[string]any{"T": mc.T})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

func (m *Module) register(mc *dispatch.ModuleContext, _ router.Resolved) error {
	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("user: parse form: %w", err)
	}

	acct := Account{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
	}
	if acct.Username == "" {
		mc.Flash("error", mc.T("user.flash.badregister"))
		mc.Redirect("/user/register")
		return nil
	}
	if err := acct.SetPassword(r.PostFormValue("password")); err != nil {
		if errors.Is(err, ErrEmptyPassword) {
			mc.Flash("error", mc.T("user.flash.badregister"))
			mc.Redirect("/user/register")
			return nil
		}
		return err
	}

	if err := m.store.Create(mc.Context(), &acct); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			mc.Flash("error", mc.T("user.flash.taken"))
			mc.Redirect("/user/register")
			return nil
		}
		return err
	}

	if handle, ok := middleware.SessionFromContext(mc.Context()); ok {
		if err := handle.Login(acct.ID, acct.Username, acct.Admin); err != nil {
			return fmt.Errorf("user: bind session: %w", err)
		}
	}

	m.log.InfoContext(mc.Context(), "account registered",
		slog.String("username", acct.Username), logger.Module(ModuleName))
	mc.Flash("hs", mc.T("user.flash.registered"))
	mc.Redirect("/")
	return nil
}

func (m *Module) profile(mc *dispatch.ModuleContext, route router.Resolved) error {
	acct, err := m.store.GetByUsername(mc.Context(), mc.Param("username"))
	if errors.Is(err, ErrNotFound) {
		mc.SetStatus(http.StatusNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	html, err := renderFragment("profile", map[string]any{
		"Account": acct,
		"T":       mc.T,
	})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

// decorate puts the sign-in box on every page.
func (m *Module) decorate(mc *dispatch.ModuleContext, route router.Resolved) error {
	html, err := renderFragment("loginbox", map[string]any{
		"User": mc.User(),
		"T":    mc.T,
	})
	if err != nil {
		return err
	}
	mc.AppendBlock(route.Block, html)
	return nil
}

func credentialsFromForm(mc *dispatch.ModuleContext) (username, password string, err error) {
	r := mc.Request()
	if err := r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("user: parse form: %w", err)
	}
	return strings.TrimSpace(r.PostFormValue("username")), r.PostFormValue("password"), nil
}
