package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/greencity/event-service/internal/config"
	"github.com/greencity/event-service/internal/metrics"
	"github.com/greencity/event-service/internal/transport/http/handlers"
	authmw "github.com/greencity/event-service/internal/transport/http/middleware"
)

func New(
	h *handlers.EventsHandler,
	auth *authmw.AuthMiddleware,
	z *handlers.HealthHandler,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.Metrics)
	r.Use(authmw.AccessLog)

	r.Get("/healthz", z.Healthz)
	r.Get("/readyz", z.Readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/event/v1", func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
		}

		r.Get("/events", h.Search)
		r.Post("/events/search", h.SearchPost)
		r.Get("/events/{event_id}", h.Get)
		r.Get("/tags", h.ListTags)
		r.Get("/cities", h.Cities)

		r.Group(func(r chi.Router) {
			r.Use(auth.Require)
			r.Post("/events", h.Create)
		})
	})

	return r
}
