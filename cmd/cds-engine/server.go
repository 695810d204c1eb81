package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/cdsengine/internal/config"
	"github.com/ehr/cdsengine/internal/domain/assessment"
	"github.com/ehr/cdsengine/internal/domain/caregap"
	"github.com/ehr/cdsengine/internal/domain/catalog"
	"github.com/ehr/cdsengine/internal/platform/cdshooks"
	"github.com/ehr/cdsengine/internal/platform/db"
	"github.com/ehr/cdsengine/internal/platform/metrics"
	"github.com/ehr/cdsengine/internal/platform/middleware"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CDS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(cfg.Level())
}

func poolConfig(cfg *config.Config) db.PoolConfig {
	return db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}

// catalogSource resolves CATALOG_SOURCE. The pool is non-nil only for the
// postgres source and must be closed by the caller.
func catalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, *pgxpool.Pool, error) {
	switch cfg.CatalogSource {
	case config.CatalogFile:
		return catalog.FileSource{Path: cfg.CatalogFile}, nil, nil
	case config.CatalogPostgres:
		pool, err := db.NewPool(ctx, poolConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		return catalog.RepositorySource{Repo: catalog.NewRepoPG(pool)}, pool, nil
	default:
		return catalog.BuiltinSource{}, nil, nil
	}
}

// openStore loads the first catalog from src and publishes reload outcomes
// and table sizes to m.
func openStore(ctx context.Context, src catalog.Source, m *metrics.Metrics) (*catalog.Store, error) {
	c, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", src.Name(), err)
	}
	store, err := catalog.NewStore(c)
	if err != nil {
		return nil, fmt.Errorf("catalog from %s: %w", src.Name(), err)
	}
	m.SetCatalogRules(c.Counts())
	store.OnReload(func(_, _ string, err error) {
		m.CatalogReloaded(err)
		if err == nil {
			m.SetCatalogRules(store.Current().Counts())
		}
	})
	return store, nil
}

// server holds everything the HTTP layer is built from.
type server struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *catalog.Store
	source  catalog.Source
	metrics *metrics.Metrics
	pool    *pgxpool.Pool
}

func (s *server) policy() caregap.Policy {
	return caregap.Policy{
		ScreeningOverdueGraceYears: s.cfg.ScreeningOverdueGraceYears,
		ChronicCareOverdueGrace:    s.cfg.ChronicCareOverdueGrace(),
	}
}

func (s *server) routes() *echo.Echo {
	cfg, logger := s.cfg, s.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger, "/health", "/health/db", "/metrics"))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowHeaders:  []string{"Content-Type", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders: []string{"ETag", middleware.RequestIDHeader, "Retry-After"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":         "ok",
			"catalogVersion": s.store.Current().Version,
		})
	})
	if s.pool != nil {
		e.GET("/health/db", db.PoolHealthHandler(s.pool))
	}
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		MaxClients:        cfg.RateLimitClients,
	}))

	catalogHandler := catalog.NewHandler(s.store, s.source, logger)
	catalogHandler.RegisterRoutes(apiV1, middleware.VersionETag(func() string {
		return s.store.Current().Version
	}))

	svc := assessment.NewService(s.store, logger,
		assessment.WithPolicy(s.policy()),
		assessment.WithRecorder(s.metrics),
	)
	assessment.NewHandler(svc).RegisterRoutes(apiV1)

	hooks := cdshooks.NewHandler()
	svc.RegisterHooks(hooks)
	hooks.RegisterRoutes(e)

	apiDocument("http://localhost:"+cfg.Port).RegisterRoutes(e)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx := context.Background()
	source, pool, err := catalogSource(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	if pool != nil {
		defer pool.Close()
		logger.Info().Msg("connected to database")
	}

	m := metrics.New()
	store, err := openStore(ctx, source, m)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load guideline catalog")
		return err
	}
	logger.Info().
		Str("source", source.Name()).
		Str("version", store.Current().Version).
		Msg("guideline catalog loaded")

	if cfg.CatalogWatch {
		catalog.Watch(cfg.CatalogFile, store, logger)
		logger.Info().Str("path", cfg.CatalogFile).Msg("watching catalog file")
	}

	s := &server{cfg: cfg, logger: logger, store: store, source: source, metrics: m, pool: pool}
	e := s.routes()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
