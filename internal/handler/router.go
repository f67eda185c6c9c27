package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter assembles the HTTP API.
func NewRouter(
	events *EventHandler,
	participations *ParticipationHandler,
	notifications *NotificationHandler,
	jwtSecret string,
	log zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(log))

	authenticated := Authenticate(jwtSecret)

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", events.List)
		r.Get("/{eventID}", events.Get)
		r.Get("/{eventID}/participations", participations.ListParticipants)
		r.Get("/{eventID}/waiting-list", participations.ListWaiting)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", events.Create)
			r.Put("/{eventID}", events.Update)
			r.Post("/{eventID}/participations", participations.Register)
			r.Delete("/{eventID}/participations", participations.Cancel)
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", notifications.List)
		r.Patch("/{notificationID}", notifications.UpdateStatus)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(r)
}
