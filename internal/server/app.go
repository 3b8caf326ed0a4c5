// Package server initializes and runs the sync server: it bootstraps the
// configured SQL backend (pool, version gate, migrations), wires the services
// and the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shellhist/syncd/internal/logging"
	"github.com/shellhist/syncd/internal/server/config"
	"github.com/shellhist/syncd/internal/server/handlers"
	"github.com/shellhist/syncd/internal/server/repositories/repomanager"
	"github.com/shellhist/syncd/internal/server/services"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

// NewApp builds the application. Backend bootstrap failures (bad DSN,
// unsupported server version, failed migration) are returned as errors;
// there is no retry, startup is fatal on the first failure.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	l := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(l)

	var (
		db  *sql.DB
		m   repomanager.RepositoryManager
		err error
	)

	switch cfg.DatabaseEngine {
	case config.EnginePostgres:
		db, m, err = repomanager.OpenPostgres(ctx, cfg.DatabaseDSN, cfg.MaxOpenConns)
	case config.EngineSQLite:
		db, m, err = repomanager.OpenSQLite(ctx, cfg.DatabaseDSN, cfg.MaxOpenConns)
	default:
		err = fmt.Errorf("unknown database engine %q", cfg.DatabaseEngine)
	}
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(db, m, cfg)
	hs := services.NewHistoryService(db, m, cfg)
	rs := services.NewRecordService(db, m, cfg)

	h := handlers.NewHandler(us, hs, rs, logger, Version)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		router: handlers.NewRouter(h),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the HTTP API until the context is cancelled or a signal
// arrives, then drains in-flight requests within the shutdown timeout.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server",
			"addr", app.config.EndpointAddr,
			"engine", app.config.DatabaseEngine,
			"version", Version,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Close releases the connection pool.
func (app *App) Close() error {
	return app.db.Close()
}
