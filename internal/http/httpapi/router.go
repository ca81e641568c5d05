package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"vibeflow/internal/http/handlers"
	"vibeflow/internal/infra"
	"vibeflow/internal/middleware"
)

// NewRouter assembles the HTTP surface: the unauthenticated callback and
// gallery routes, and the bearer-gated user routes.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
	)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	// Providers post here and cannot carry credentials.
	r.Post("/v1/callbacks/generation", app.GenerationCallback)

	// Public read view.
	r.Get("/v1/gallery", app.Gallery)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).
			Post("/v1/generations", app.GenerationsCreate)
		r.Get("/v1/generations/{id}", app.GenerationStatus)
		r.Get("/v1/credits", app.CreditsGet)
		r.Get("/v1/transactions", app.TransactionsList)
	})

	return r
}
