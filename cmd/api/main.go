package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Croco1609/collectorPerso/internal/articles"
	"github.com/Croco1609/collectorPerso/internal/auth"
	"github.com/Croco1609/collectorPerso/internal/config"
	"github.com/Croco1609/collectorPerso/internal/db"
	"github.com/Croco1609/collectorPerso/internal/docs"
	"github.com/Croco1609/collectorPerso/internal/health"
	"github.com/Croco1609/collectorPerso/internal/httpx"
	"github.com/Croco1609/collectorPerso/internal/logger"
	"github.com/Croco1609/collectorPerso/internal/metrics"
)

const serviceName = "collector-api"

// appPool es lo que la app usa del pool; *pgxpool.Pool lo cumple.
type appPool interface {
	articles.DB
	db.Execer
	Ping(ctx context.Context) error
	Close()
}

type appDeps struct {
	loadConfig  func() (config.Config, error)
	newLogger   func(cfg config.Config) (logger.Logger, error)
	newPool     func(ctx context.Context, cfg config.Database, log logger.Logger) (appPool, error)
	newVerifier func(ctx context.Context, cfg config.Auth) (auth.TokenVerifier, error)
	serve       func(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log logger.Logger) error
}

var (
	loadConfigFn = config.Load
	newLoggerFn  = func(cfg config.Config) (logger.Logger, error) {
		return logger.New(cfg.Logger, serviceName, cfg.Env)
	}
	newPoolFn = func(ctx context.Context, cfg config.Database, log logger.Logger) (appPool, error) {
		pool, err := db.NewPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	newVerifierFn = func(ctx context.Context, cfg config.Auth) (auth.TokenVerifier, error) {
		verifier, err := auth.NewKeycloakVerifier(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	}
	serveFn = httpx.Serve
	fatalf  = log.Fatal
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := appDeps{
		loadConfig:  loadConfigFn,
		newLogger:   newLoggerFn,
		newPool:     newPoolFn,
		newVerifier: newVerifierFn,
		serve:       serveFn,
	}
	if err := run(ctx, deps); err != nil {
		fatalf(err)
	}
}

// run arma la app y bloquea hasta que ctx termina o el server falla.
// Server y sampler comparten un errgroup: si el server sale, el sampler se corta.
func run(ctx context.Context, deps appDeps) error {
	cfg, err := deps.loadConfig()
	if err != nil {
		return err
	}

	appLog, err := deps.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := deps.newPool(ctx, cfg.Database, appLog)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool, cfg.ResetSchema(), appLog); err != nil {
		return err
	}

	verifier, err := deps.newVerifier(ctx, cfg.Auth)
	if err != nil {
		return err
	}

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New()
	}

	repository := articles.NewRepository(pool)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: buildRouter(routerDeps{
			cfg:      cfg,
			log:      appLog,
			pool:     pool,
			articles: articles.NewService(repository),
			verifier: verifier,
			metrics:  appMetrics,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer cancel()
		return deps.serve(groupCtx, server, cfg.HTTP.ShutdownTimeout, appLog)
	})
	if appMetrics != nil {
		sampler := metrics.NewSampler(repository, appMetrics, cfg.Metrics.SampleInterval, appLog)
		group.Go(func() error {
			return sampler.Run(groupCtx)
		})
	}

	appLog.Infow("collector API ready",
		"addr", server.Addr,
		"env", cfg.Env,
		"reset_schema", cfg.ResetSchema(),
		"issuer", cfg.Auth.Issuer(),
		"metrics", cfg.Metrics.Enabled,
	)

	if err := group.Wait(); err != nil {
		appLog.Errorw("collector API stopped with error", "error", err)
		return err
	}
	appLog.Infow("collector API stopped")
	return nil
}

type routerDeps struct {
	cfg      config.Config
	log      logger.Logger
	pool     health.Pinger
	articles articles.ServiceAPI
	verifier auth.TokenVerifier
	metrics  *metrics.Metrics
}

func buildRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()

	// Middlewares base para trazabilidad y estabilidad.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if deps.metrics != nil {
		r.Use(deps.metrics.Middleware)
	}
	r.Use(httpx.RequestLogger(deps.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "WWW-Authenticate"},
		MaxAge:         300,
	}))
	if deps.cfg.HTTP.RequestTimeout > 0 {
		r.Use(middleware.Timeout(deps.cfg.HTTP.RequestTimeout))
	}

	// Errores de routing se manejan a nivel router.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	healthHandler := health.New(deps.pool)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	gate := auth.NewGate(deps.verifier, deps.cfg.Auth.Realm, deps.log)
	articles.RegisterRoutes(r, articles.NewHandler(deps.articles, deps.log), gate)

	if deps.metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.metrics.Handler())
	}

	docs.RegisterRoutes(r)

	return r
}
