// Command calipso runs the CMS server: it loads configuration, wires the
// stores, module registry, theme registry, and session layer together, and
// serves requests through the dispatch coordinator.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cliftonc/calipso/core/config"
	"github.com/cliftonc/calipso/core/cookie"
	"github.com/cliftonc/calipso/core/dispatch"
	"github.com/cliftonc/calipso/core/i18n"
	"github.com/cliftonc/calipso/core/logger"
	"github.com/cliftonc/calipso/core/module"
	"github.com/cliftonc/calipso/core/server"
	"github.com/cliftonc/calipso/core/session"
	"github.com/cliftonc/calipso/core/theme"
	"github.com/cliftonc/calipso/integration/database/pg"
	"github.com/cliftonc/calipso/integration/database/redis"
	"github.com/cliftonc/calipso/middleware"
	"github.com/cliftonc/calipso/modules/admin"
	"github.com/cliftonc/calipso/modules/assets"
	"github.com/cliftonc/calipso/modules/content"
	"github.com/cliftonc/calipso/modules/user"
)

type appConfig struct {
	SitePath        string        `env:"SITE_CONFIG_PATH" envDefault:"site.json"`
	ThemesDir       string        `env:"THEMES_DIR" envDefault:"themes"`
	TranslationsDir string        `env:"TRANSLATIONS_DIR" envDefault:"translations"`
	SessionSecrets  []string      `env:"SESSION_SECRETS,required" envSeparator:","`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionTouch    time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`

	AssetsBackend string `env:"ASSETS_BACKEND" envDefault:"local"`
	AssetsDir     string `env:"ASSETS_DIR" envDefault:"public"`

	S3Bucket      string `env:"S3_BUCKET" envDefault:""`
	S3Region      string `env:"S3_REGION" envDefault:""`
	S3AccessKeyID string `env:"S3_ACCESS_KEY_ID" envDefault:""`
	S3SecretKey   string `env:"S3_SECRET_KEY" envDefault:""`
	S3Endpoint    string `env:"S3_ENDPOINT" envDefault:""`
	S3KeyPrefix   string `env:"S3_KEY_PREFIX" envDefault:"assets"`
	S3PathStyle   bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "calipso:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	var logCfg logger.Config
	var srvCfg server.Config
	var pgCfg pg.Config
	var redisCfg redis.Config
	for _, load := range []func() error{
		func() error { return config.Load(&cfg) },
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&srvCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	site, err := config.LoadSite(cfg.SitePath)
	if err != nil {
		return err
	}

	// The site's stored level wins over the environment so the admin form
	// controls verbosity; reloads adjust it through the LevelVar.
	if lvl := site.Get(config.KeyLogLevel); lvl != "" {
		logCfg.Level = lvl
	}
	log, logLevel := logger.NewDynamic(os.Stderr, logCfg)
	slog.SetDefault(log)

	contentStore, userStore, err := buildStores(ctx, pgCfg, log)
	if err != nil {
		return err
	}

	assetBackend, err := buildAssetBackend(ctx, cfg)
	if err != nil {
		return err
	}

	transport, err := buildSessions(ctx, cfg, redisCfg, log)
	if err != nil {
		return err
	}

	catalog, err := i18n.New(
		i18n.WithDefaultLanguage(site.Get(config.KeyLanguage)),
		i18n.LoadDir(cfg.TranslationsDir),
		i18n.WithMissingKeyHandler(func(lang, key string) {
			log.Debug("missing translation", slog.String("lang", lang), slog.String("key", key))
		}),
	)
	if err != nil {
		return err
	}

	registry := module.NewRegistry(site, log)
	registry.Register(content.ModuleName, content.Factory(contentStore, log))
	registry.Register(user.ModuleName, user.Factory(userStore, log))
	registry.Register(admin.ModuleName, admin.Factory(site, userStore, cfg.ThemesDir, log))
	registry.Register(assets.ModuleName, assets.Factory(assetBackend, log))
	if err := registry.Load(ctx); err != nil {
		// Partial loads are survivable; the failed modules are logged and
		// simply not routed.
		log.Error("some modules failed to load", logger.Error(err))
	}
	if !site.Installed() {
		if err := registry.Install(ctx); err != nil {
			return fmt.Errorf("run install hooks: %w", err)
		}
	}

	hub := theme.NewHub(log)
	themes, err := theme.NewRegistry(cfg.ThemesDir, site.Get(config.KeyTheme), log,
		theme.WithTitle(func() string { return site.Get(config.KeyTitle) }),
		theme.WithHub(hub),
	)
	if err != nil {
		return err
	}

	coordinator := dispatch.NewCoordinator(registry.Snapshot, themes,
		dispatch.WithReloader(&hotReloader{
			site:     site,
			modules:  registry,
			themes:   themes,
			logLevel: logLevel,
			log:      log,
		}),
		dispatch.WithInstalledCheck(site.Installed),
		dispatch.WithLogger(log),
	)

	mux := http.NewServeMux()
	mux.Handle("/livereload", hub)
	mux.Handle("/", coordinator)

	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.Session(transport, log),
		middleware.Language(catalog, site),
	)

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, handler))
	g.Go(func() error {
		watcher := theme.NewWatcher(themes, log)
		if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	log.Info("calipso started",
		slog.String("addr", srvCfg.Addr),
		slog.String("theme", site.Get(config.KeyTheme)),
		slog.Bool("installed", site.Installed()),
	)
	return g.Wait()
}

// buildStores picks Postgres-backed stores when a database is configured and
// in-memory stores otherwise.
func buildStores(ctx context.Context, cfg pg.Config, log *slog.Logger) (content.Store, user.Store, error) {
	if cfg.URL == "" {
		log.Info("no database configured, content and users are in-memory")
		return content.NewMemoryStore(), user.NewMemoryStore(), nil
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	contentStore, err := content.NewPgStore(ctx, pool)
	if err != nil {
		return nil, nil, err
	}
	userStore, err := user.NewPgStore(ctx, pool)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to postgres")
	return contentStore, userStore, nil
}

func buildAssetBackend(ctx context.Context, cfg appConfig) (assets.Backend, error) {
	switch cfg.AssetsBackend {
	case "s3":
		return assets.NewS3Backend(ctx, assets.S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			KeyPrefix:      cfg.S3KeyPrefix,
			ForcePathStyle: cfg.S3PathStyle,
		})
	case "local":
		return assets.NewLocalBackend(cfg.AssetsDir)
	default:
		return nil, fmt.Errorf("unknown assets backend %q", cfg.AssetsBackend)
	}
}

// buildSessions assembles the cookie-token session transport, Redis-backed
// when configured and in-memory otherwise.
func buildSessions(ctx context.Context, cfg appConfig, redisCfg redis.Config, log *slog.Logger) (*session.Transport[middleware.VisitorData], error) {
	var store session.Store[middleware.VisitorData]
	if redisCfg.URL != "" {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		store = session.NewRedisStore[middleware.VisitorData](client)
		log.Info("connected to redis, sessions are persistent")
	} else {
		store = session.NewMemoryStore[middleware.VisitorData]()
		log.Info("no redis configured, sessions are in-memory")
	}

	jar, err := cookie.New(cfg.SessionSecrets)
	if err != nil {
		return nil, err
	}
	manager := session.NewManager(store, cfg.SessionTTL, cfg.SessionTouch)
	return session.NewTransport(manager, jar, session.DefaultCookieName), nil
}

// hotReloader applies an admin-triggered reload after the dispatch barrier.
// Every step is staged first: parse the site file, compile the selected
// theme, build the next module generation. Only when all of them succeed are
// config, modules, theme, and log level committed together, so a failure at
// any step leaves the entire previous configuration in force.
type hotReloader struct {
	mu       sync.Mutex
	site     *config.Site
	modules  *module.Registry
	themes   *theme.Registry
	logLevel *slog.LevelVar
	log      *slog.Logger
}

func (h *hotReloader) Reload(rctx *dispatch.ReloadContext) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	staged, err := h.site.Stage()
	if err != nil {
		return err
	}
	nextTheme, err := h.themes.Prepare(staged.Get(config.KeyTheme))
	if err != nil {
		return err
	}
	nextSet, err := h.modules.Prepare(rctx.RC.Request().Context(), staged.Modules())
	if err != nil {
		return err
	}

	h.site.Commit(staged)
	h.modules.Commit(nextSet)
	h.themes.Commit(nextTheme)
	h.logLevel.Set(logger.ParseLevel(staged.Get(config.KeyLogLevel)))

	h.log.Info("configuration reloaded",
		slog.String("theme", staged.Get(config.KeyTheme)),
		slog.String("logLevel", staged.Get(config.KeyLogLevel)),
	)
	return nil
}
