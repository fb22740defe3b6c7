package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phrazzld/coursegen/internal/api"
	apiMiddleware "github.com/phrazzld/coursegen/internal/api/middleware"
	"github.com/phrazzld/coursegen/internal/api/shared"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	generationHandler := api.NewGenerationHandler(app.generationService)
	admissionHandler := api.NewAdmissionHandler(app.controller)
	outcomeHandler := api.NewOutcomeHandler(app.recorder)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/generations/metadata", generationHandler.GenerateMetadata)
		r.Post("/generations/module", generationHandler.GenerateModule)
		r.Get("/stats", generationHandler.GetStats)

		r.Post("/admission/requests", admissionHandler.RegisterRequest)
		r.Get("/admission/requests/{id}", admissionHandler.GetRequest)
		r.Delete("/admission/requests/{id}", admissionHandler.CancelRequest)
		r.Post("/admission/requests/{id}/complete", admissionHandler.CompleteRequest)
		r.Post("/admission/requests/{id}/fail", admissionHandler.FailRequest)

		r.Get("/outcomes", outcomeHandler.ListOutcomes)
		r.Get("/outcomes/summary", outcomeHandler.GetSummary)
		r.Get("/outcomes/{id}", outcomeHandler.GetOutcome)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}
