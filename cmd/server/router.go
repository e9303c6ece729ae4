package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/verbdrill/internal/api"
	apiMiddleware "github.com/phrazzld/verbdrill/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(apiMiddleware.Metrics(app.metrics))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	sessionHandler := api.NewSessionHandler(app.selectorService, app.config.Review.DefaultSessionSize, app.logger)
	attemptHandler := api.NewAttemptHandler(app.attemptService, app.logger)
	reviewHandler := api.NewReviewHandler(app.queueService, app.attemptService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/sessions", sessionHandler.CreateSession)
		r.Post("/attempts", attemptHandler.SubmitAttempt)

		r.Get("/reviews/due", reviewHandler.GetDueItems)
		r.Get("/reviews/stats", reviewHandler.GetStats)
		r.Post("/reviews/postpone", reviewHandler.PostponeReview)

		r.Delete("/progress", reviewHandler.ResetProgress)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}
