package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	drepo "Heatmap/internal/domain/repository"
	"Heatmap/pkg/config"
	xhttp "Heatmap/pkg/http"
	applogger "Heatmap/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	registry   drepo.TickerRegistry
	store      io.Closer // nil when running on the in-memory cache
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, handler xhttp.Handler, registry drepo.TickerRegistry, store io.Closer) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		handler:  handler,
		registry: registry,
		store:    store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(a.cfg.Watchlist) > 0 {
		if err := a.registry.Seed(ctx, a.cfg.Watchlist); err != nil {
			a.logger.Warn("watchlist seed failed", applogger.Error(err))
		} else {
			a.logger.Info("watchlist seeded", applogger.Strings("symbols", a.cfg.Watchlist))
		}
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("store close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
