package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Generation calls cost money per request; cap them per client IP on
	// top of the backend's own minimum interval.
	limitGeneration := func(next http.Handler) http.Handler { return next }
	if h.generateRPM > 0 {
		limitGeneration = httprate.Limit(h.generateRPM, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				WriteProblem(w, r, http.StatusTooManyRequests, "Generation rate limit exceeded")
			}),
		)
	}

	r.Handle("/metrics", h.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/campaigns", h.CreateCampaign)
			r.Get("/campaigns", h.ListCampaigns)

			r.Route("/campaigns/{campaign_id}", func(r chi.Router) {
				r.Use(h.CampaignMiddleware)
				r.Get("/", h.GetCampaign)
				r.Get("/entities", h.ListEntities)
				r.Get("/entities/{entity_id}", h.GetEntity)

				r.Route("/wizard", func(r chi.Router) {
					r.Get("/", h.WizardState)
					r.Put("/fields/{field}", h.UpdateField)
					r.Post("/template", h.LoadTemplate)
					r.Post("/goto", h.GoToStep)
					r.Post("/next", h.NextStep)
					r.Post("/previous", h.PreviousStep)
					r.Post("/draft", h.SaveDraft)
					r.With(limitGeneration).Post("/complete", h.CompleteWizard)
					r.With(limitGeneration).Post("/suggest/{field}", h.SuggestField)
				})

				r.With(limitGeneration).Post("/generate", h.GenerateContent)
				r.With(limitGeneration).Post("/generate/{category}", h.GenerateItem)
			})
		})
	})

	return r
}
