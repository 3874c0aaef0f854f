package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"archpanel/internal/http/handlers"
	"archpanel/internal/infra"
	"archpanel/internal/middleware"
)

// NewRouter assembles the public API surface.
func NewRouter(app *handlers.App, logger infra.Logger, rateLimitPerMin int) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/designs", func(r chi.Router) {
		r.Post("/validate", app.ValidateDesign)
		r.Get("/{fingerprint}/runs/latest", app.LatestDesignRun)
	})

	r.Route("/v1/runs", func(r chi.Router) {
		// Submissions are throttled ahead of the backend's own limiter.
		r.With(middleware.RateLimit(rateLimitPerMin, time.Minute)).Post("/", app.CreateRun)
		r.Get("/{id}", app.GetRun)
		r.Get("/{id}/report", app.GetRunReport)
		r.Get("/{id}/panels", app.ListRunPanels)
		r.Get("/{id}/bundle", app.DownloadRunBundle)
	})

	return r
}
