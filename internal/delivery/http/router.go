package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherings/internal/delivery/http/controllers"
	"gatherings/internal/delivery/http/middleware"
	"gatherings/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(events *controllers.EventController,
	pastEvents *controllers.PastEventController,
	verifier domain.ActorTokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Listings
	mux.HandleFunc("POST /events", optionalAuth(events.Submit))
	mux.HandleFunc("GET /events", events.ListUpcoming)
	mux.HandleFunc("GET /events/{slug}", optionalAuth(events.GetBySlug))
	mux.HandleFunc("GET /events/{eventID}/occurrences", events.Occurrences)
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(events.Edit))
	mux.HandleFunc("POST /events/{eventID}/actions/{action}", requireAuth(events.ApplyAction))
	mux.HandleFunc("POST /events/{eventID}/duplicate", requireAuth(events.Duplicate))

	// Gallery
	mux.HandleFunc("GET /past-events", pastEvents.List)
	mux.HandleFunc("GET /past-events/{slug}", pastEvents.GetBySlug)
	mux.HandleFunc("POST /past-events", requireAuth(pastEvents.CreateHistorical))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
