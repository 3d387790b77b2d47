package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/steeze-sinks/pkg/admin"
	"github.com/joeydtaylor/steeze-sinks/pkg/backend"
	"github.com/joeydtaylor/steeze-sinks/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-sinks/pkg/core"
	"github.com/joeydtaylor/steeze-sinks/pkg/electrician"
	"github.com/joeydtaylor/steeze-sinks/pkg/manifest"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf"
	"github.com/joeydtaylor/steeze-sinks/pkg/sinkconf/builtin"
	"github.com/joeydtaylor/steeze-sinks/pkg/store"
	"github.com/joeydtaylor/steeze-sinks/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Config struct {
	Service         string // for logs only
	ManifestPath    string // explicit path, e.g. from --manifest; wins over ManifestEnv
	ManifestEnv     string // SINKADMIN_MANIFEST
	DefaultManifest string // "sinkadmin.toml"
	ListenEnv       string // SERVER_LISTEN_ADDRESS
	TLSCertEnv      string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv       string // SSL_SERVER_KEY
}

type Option func(*Config)

func WithService(s string) Option            { return func(c *Config) { c.Service = s } }
func WithManifestPath(p string) Option       { return func(c *Config) { c.ManifestPath = p } }
func WithManifestEnv(k string) Option        { return func(c *Config) { c.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(c *Config) { c.DefaultManifest = path } }
func WithListenEnv(k string) Option          { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

func defaultConfig() Config {
	return Config{
		Service:         "sinkadmin",
		ManifestEnv:     "SINKADMIN_MANIFEST",
		DefaultManifest: "sinkadmin.toml",
		ListenEnv:       "SERVER_LISTEN_ADDRESS",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
	}
}

func (c Config) manifestPath() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return envOr(c.ManifestEnv, c.DefaultManifest)
}

// Module returns a complete Fx option set for the sink admin service.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger { return &fxevent.ZapLogger{Logger: l} }),
		// Core middleware
		bundlefx.Module,
		// Router impl
		fx.Provide(httpx.NewChi),
		// Config into DI
		fx.Provide(func() Config { return cfg }),
		fx.Provide(provideManifest),
		// Domain
		fx.Provide(builtin.NewRegistry),
		fx.Provide(provideStore),
		fx.Provide(provideBackend),
		fx.Provide(provideService),
		// Router
		fx.Provide(fx.Annotate(
			provideRouter,
			fx.ParamTags(``, ``, ``, `name:"metrics"`, ``, ``, ``), // man,a,lm,m,r,svc,zl
			fx.ResultTags(`name:"app"`),
		)),
		// Lifecycle
		fx.Invoke(registerHooks),
	)
}

func provideManifest(cfg Config, zl *zap.Logger) (manifest.Config, error) {
	path := cfg.manifestPath()
	man, err := core.LoadConfig(path)
	if err != nil {
		zl.Error("manifest load failed", zap.Error(err), zap.String("path", path))
		return manifest.Config{}, err
	}
	zl.Info("manifest loaded", zap.String("service", cfg.Service), zap.String("path", path), zap.Int("seeds", len(man.Sinks)))
	return man, nil
}

// ---------- Store ----------

// provideStore loads the catalog file when one is configured. Invalid stored
// entries are logged and skipped; the rest still load.
func provideStore(man manifest.Config, reg *sinkconf.Registry, zl *zap.Logger) (*store.Catalog, admin.Persister, error) {
	if man.Store.Path == "" {
		zl.Info("catalog kept in memory")
		return store.NewCatalog(), nil, nil
	}
	f, err := store.NewFile(man.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	cat, err := f.Load(reg)
	if cat == nil {
		return nil, nil, err
	}
	if err != nil {
		zl.Warn("catalog entries skipped", zap.String("path", f.Path()), zap.Error(err))
	}
	zl.Info("catalog loaded", zap.String("path", f.Path()), zap.Int("sinks", cat.Len()))
	return cat, f, nil
}

// ---------- Backend ----------

// provideBackend publishes through an Electrician relay when ELECTRICIAN_TARGET
// is set, and nowhere otherwise.
func provideBackend(lc fx.Lifecycle, man manifest.Config, zl *zap.Logger) (backend.Publisher, error) {
	opts, err := electrician.LoadRelayOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	if !opts.Enabled() {
		zl.Warn("no ELECTRICIAN_TARGET; backend publishing disabled")
		return backend.Noop{}, nil
	}
	out, err := electrician.NewRelay(opts)
	if err != nil {
		return nil, err
	}
	rel := backend.NewRelay(out, man.Backend.Topic, man.Backend.Trusted)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		rel.Close()
		return nil
	}})
	zl.Info("backend relay ready",
		zap.Strings("targets", opts.Targets),
		zap.String("topic", man.Backend.Topic),
		zap.Bool("trusted", man.Backend.Trusted),
		zap.Bool("oauth", opts.OAuthEnabled()),
	)
	return rel, nil
}

// ---------- Service ----------

func provideService(
	man manifest.Config,
	reg *sinkconf.Registry,
	cat *store.Catalog,
	p admin.Persister,
	pub backend.Publisher,
	dom *metrics.Domain,
	zl *zap.Logger,
) (*admin.Service, error) {
	svc, err := admin.New(admin.Deps{
		Registry:  reg,
		Catalog:   cat,
		Persister: p,
		Publisher: pub,
		Logger:    zl,
		Metrics:   dom,
	})
	if err != nil {
		return nil, err
	}
	if len(man.Sinks) > 0 {
		seeds := make([]sinkconf.Record, 0, len(man.Sinks))
		for _, s := range man.Sinks {
			seeds = append(seeds, s.Record())
		}
		if err := svc.Seed(seeds); err != nil {
			zl.Error("manifest seeds rejected", zap.Error(err))
			return nil, err
		}
	}
	return svc, nil
}

// ---------- Router ----------

func provideRouter(
	man manifest.Config,
	a *auth.Middleware,
	lm *logger.Middleware,
	/* name:"metrics" */ m http.Handler,
	r httpx.Router,
	svc *admin.Service,
	zl *zap.Logger,
) http.Handler {
	return core.BuildRouter(man, core.BuildDeps{
		Auth:    a,
		LogMW:   lm,
		Metrics: m,
		Router:  r,
		Service: svc,
		Logger:  zl,
	})
}

// ---------- Lifecycle (HTTP server + backend sync) ----------

type serverDeps struct {
	fx.In
	Logger   *zap.Logger
	Manifest manifest.Config
	Service  *admin.Service
	App      http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, cfg Config, d serverDeps) {
	addr := envOr(cfg.ListenEnv, d.Manifest.Server.Listen)
	cert, key := os.Getenv(cfg.TLSCertEnv), os.Getenv(cfg.TLSKeyEnv)
	if t := d.Manifest.Server.TLS; t != nil && cert == "" && key == "" {
		cert, key = t.Cert, t.Key
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  time.Duration(d.Manifest.Server.ReadTimeoutMS) * time.Millisecond,
		WriteTimeout: time.Duration(d.Manifest.Server.WriteTimeoutMS) * time.Millisecond,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	syncCtx, syncCancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			// Push the catalog so the backend matches it after a restart.
			go func() {
				if err := d.Service.Sync(syncCtx); err != nil {
					d.Logger.Warn("backend sync incomplete", zap.Error(err))
				}
			}()

			// Start HTTP.
			if useTLS {
				d.Logger.Info("server starting (TLS)", zap.String("addr", addr), zap.String("cert", cert))
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("server starting (PLAINTEXT)", zap.String("addr", addr))
				srv.TLSConfig = nil
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping")
			syncCancel()
			return srv.Shutdown(ctx)
		},
	})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
