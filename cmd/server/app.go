package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/phrazzld/verbdrill/internal/catalog"
	"github.com/phrazzld/verbdrill/internal/config"
	"github.com/phrazzld/verbdrill/internal/domain/grading"
	"github.com/phrazzld/verbdrill/internal/domain/srs"
	"github.com/phrazzld/verbdrill/internal/events"
	"github.com/phrazzld/verbdrill/internal/platform/badgerkv"
	"github.com/phrazzld/verbdrill/internal/platform/memory"
	"github.com/phrazzld/verbdrill/internal/platform/metrics"
	"github.com/phrazzld/verbdrill/internal/platform/postgres"
	"github.com/phrazzld/verbdrill/internal/service/attempt"
	"github.com/phrazzld/verbdrill/internal/service/auth"
	"github.com/phrazzld/verbdrill/internal/service/queue"
	"github.com/phrazzld/verbdrill/internal/service/selector"
	"github.com/phrazzld/verbdrill/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	states  store.ReviewStateStore
	closers []io.Closer
	// badgerDB is set for the badger driver so Run can schedule value log GC.
	badgerDB *badger.DB

	jwtService      auth.JWTService
	attemptService  attempt.Service
	queueService    queue.Service
	selectorService selector.Service
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	filters, err := catalog.NewFilterEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to build filter environment: %w", err)
	}
	logger.Info("catalog loaded", slog.String("path", cfg.Catalog.Path), slog.Int("entries", cat.Len()))

	if err := app.openStore(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewAnalyticsLogHandler(logger))
	emitter.Subscribe(events.NewMetricsHandler(app.metrics), events.TypeAttemptGraded)

	engine := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:     cfg.SRS.MinEaseFactor,
		DefaultEaseFactor: cfg.SRS.DefaultEaseFactor,
		MaxIntervalDays:   cfg.SRS.MaxIntervalDays,
		MaxHistory:        cfg.SRS.MaxHistory,
	}))

	app.attemptService = attempt.NewService(
		app.states,
		cat,
		grading.NewDefaultValidator(),
		engine,
		emitter,
		logger,
		attempt.WithMaxRetries(cfg.Review.MaxRetries),
		attempt.WithMetrics(app.metrics),
	)
	app.queueService = queue.NewService(app.states, cfg.Review.Location(), logger)

	selectorOpts := []selector.Option{selector.WithMetrics(app.metrics)}
	if cfg.Review.RandomSeed != 0 {
		selectorOpts = append(selectorOpts, selector.WithSeed(uint64(cfg.Review.RandomSeed)))
	}
	app.selectorService = selector.NewService(cat, app.states, filters, logger, selectorOpts...)

	logger.Info("application initialized successfully")
	return app, nil
}

// openStore connects the review state store selected by database.driver.
func (app *application) openStore(ctx context.Context) error {
	cfg := app.config.Database
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns, app.logger)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, db)
		app.states = postgres.NewPostgresReviewStateStore(db, app.logger)

	case config.DriverBadger:
		bcfg := badgerkv.DefaultConfig(cfg.BadgerPath)
		bcfg.Logger = app.logger
		db, err := badgerkv.Open(bcfg)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, db)
		app.badgerDB = db
		app.states = badgerkv.NewReviewStateStore(db, app.logger)

	case config.DriverMemory:
		app.logger.Warn("using in-memory review state store; progress is lost on restart")
		app.states = memory.NewReviewStateStore(app.logger)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	app.logger.Info("review state store ready", slog.String("driver", cfg.Driver))
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("error closing resource", slog.String("error", err.Error()))
		}
	}
	app.closers = nil
	app.logger.Info("application shutdown completed")
}
