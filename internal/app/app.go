// Package app assembles the bookshelf service and runs its HTTP server until
// the process is asked to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/circulation"
	"bookshelf/internal/clock"
	"bookshelf/internal/config"
	"bookshelf/internal/logging"
	"bookshelf/internal/membership"
	"bookshelf/internal/openlibrary"
	"bookshelf/internal/storage"
	"bookshelf/internal/telemetry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AppProvider is the process handle returned by NewApp.
type AppProvider interface {
	Run() error
}

type App struct {
	logger   *zap.Logger
	config   *config.Config
	server   *http.Server
	cleanups []func()
}

// NewAPIHandler wires the stores, services and handlers on db and returns
// the complete router.
func NewAPIHandler(cfg *config.Config, logger *zap.Logger, db *storage.DB, fetcher catalog.MetadataFetcher, ck clock.Clocker) http.Handler {
	bookStore := catalog.NewStore(db)
	memberStore := membership.NewStore(db)
	ledger := circulation.NewStore(db)

	catalogService := catalog.NewService(bookStore, fetcher, ck, logger.Named("catalog"))
	membershipService := membership.NewService(memberStore, ck, logger.Named("membership"))
	circulationService := circulation.NewService(db, bookStore, memberStore, ledger, ck, logger.Named("circulation"))

	version := cfg.GitTag
	if version == "" {
		version = cfg.GitCommit
	}
	ops := NewOpsHandler(catalogService, Statistics{
		Version:   version,
		Commit:    cfg.GitCommit,
		BuildTime: cfg.BuildTime,
		Started:   ck.Now(),
	}, ck, logger)

	return NewRouter(cfg, logger, ops,
		catalog.NewHandler(catalogService, cfg.Pagination, logger),
		membership.NewHandler(membershipService, cfg.Pagination, logger),
		circulation.NewHandler(circulationService, logger),
	)
}

// NewApp provides an instance of App.
func NewApp(gitCommit, gitTag, buildTime string) (AppProvider, error) {
	cfg, err := config.LoadAndInitConfigs(gitCommit, gitTag, buildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	logger, flusher, err := logging.Setup(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %s", err)
	}
	// Cleanups run first to last, so later resources are prepended.
	cleanups := []func(){flusher}
	fail := func(err error) (AppProvider, error) {
		for _, f := range cleanups {
			f()
		}
		return nil, err
	}

	version := cfg.GitTag
	if version == "" {
		version = cfg.GitCommit
	}
	shutdownTelemetry, err := telemetry.Setup(context.Background(), cfg.Telemetry, version)
	if err != nil {
		return fail(fmt.Errorf("failed to setup telemetry: %s", err))
	}
	cleanups = append([]func(){func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("failed to flush telemetry", zap.Error(err))
		}
	}}, cleanups...)

	db, err := storage.Open(context.Background(), cfg.Database)
	if err != nil {
		return fail(fmt.Errorf("failed to connect to database: %s", err))
	}
	cleanups = append([]func(){func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}}, cleanups...)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			return fail(fmt.Errorf("failed to migrate database: %s", err))
		}
		logger.Info("database schema applied", zap.String("database.driver", cfg.Database.Driver))
	}

	fetcher := openlibrary.NewClient(cfg.OpenLibrary, &http.Client{Timeout: cfg.OpenLibrary.Timeout}, logger.Named("openlibrary"))
	handler := NewAPIHandler(cfg, logger, db, fetcher, clock.New())

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}

	return &App{
		logger:   logger,
		config:   cfg,
		server:   srv,
		cleanups: cleanups,
	}, nil
}

// Run serves the API until SIGINT or SIGTERM arrives or the listener fails,
// then drains in-flight requests and releases every resource.
func (app *App) Run() error {
	defer app.Clean()
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(sigCtx)
	g.Go(app.listen)
	g.Go(func() error { return app.drain(gCtx, sigCtx) })

	err := g.Wait()
	app.logger.Info("bookshelf api exited", zap.String("server.address", app.server.Addr), zap.Error(err))
	return err
}

// Clean calls all registered cleanups functions in order.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

func (app *App) listen() error {
	app.logger.Info("bookshelf api listening",
		zap.String("server.address", app.server.Addr),
		zap.String("database.driver", app.config.Database.Driver),
	)
	err := app.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("listen on %s: %w", app.server.Addr, err)
}

// drain blocks until done is cancelled, then gives open borrows and lookups
// the shutdown timeout to finish before cutting the remaining connections.
// A failed drain is logged only, so the group reports the listener's error.
func (app *App) drain(done, signalled context.Context) error {
	<-done.Done()

	cause := "listener failed"
	if signalled.Err() != nil {
		cause = "signal received"
	}
	app.logger.Info("draining bookshelf api",
		zap.String("shutdown.cause", cause),
		zap.Duration("shutdown.timeout", app.config.Server.ShutdownTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Warn("drain incomplete, closing open connections",
			zap.Error(err),
			zap.NamedError("close.error", app.server.Close()),
		)
		return nil
	}
	app.logger.Info("bookshelf api drained")
	return nil
}
