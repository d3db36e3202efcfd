package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router with the global middleware stack and all routes.
func NewRouter(h *EventHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(logger))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Put("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/participants", h.AssignParticipants)
		r.Post("/{id}/participants/{participantID}", h.AssignParticipant)
		r.Post("/{id}/cost", h.CalculateCost)
	})

	r.Route("/participants", func(r chi.Router) {
		r.Post("/", h.CreateParticipant)
		r.Post("/{id}/organized-costs", h.OrganizerCosts)
	})

	r.Route("/logistics", func(r chi.Router) {
		r.Post("/", h.CreateLogistics)
		r.Get("/", h.ListLogistics)
	})

	return r
}
