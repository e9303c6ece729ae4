package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/verbdrill/internal/platform/badgerkv"
	"golang.org/x/sync/errgroup"
)

// Run serves HTTP until ctx is canceled, then shuts down gracefully and
// releases application resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("starting server", slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if app.badgerDB != nil {
		g.Go(func() error {
			return badgerkv.RunGC(gctx, app.badgerDB, app.config.Database.BadgerGCInterval, app.logger)
		})
	}

	err := g.Wait()
	if err != nil {
		app.logger.Error("server stopped with error", slog.String("error", err.Error()))
		return err
	}
	app.logger.Info("server shutdown completed")
	return nil
}
