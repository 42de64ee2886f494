package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherapp/internal/delivery/http/controllers"
	"gatherapp/internal/delivery/http/middleware"
)

// NewRouter initializes the HTTP router with all application routes.
// Everything except registration, login, and swagger sits behind the cookie
// auth middleware.
func NewRouter(
	auth *controllers.AuthController,
	events *controllers.EventController,
	attendees *controllers.AttendeeController,
	engagement *controllers.EngagementController,
	authn *middleware.Authenticator,
) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := authn.RequireAuth

	// Auth
	mux.HandleFunc("POST /auth/register", auth.Register)
	mux.HandleFunc("POST /auth/login", auth.Login)
	mux.HandleFunc("POST /auth/logout", auth.Logout)
	mux.HandleFunc("GET /auth/verify", requireAuth(auth.Verify))

	// Events
	mux.HandleFunc("GET /events", requireAuth(events.List))
	mux.HandleFunc("POST /events", requireAuth(events.Create))
	mux.HandleFunc("GET /events/{eventID}", requireAuth(events.GetByID))
	mux.HandleFunc("PATCH /events/{eventID}", requireAuth(events.Update))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(events.Delete))

	// Attendance
	mux.HandleFunc("POST /events/{eventID}/register", requireAuth(attendees.Register))
	mux.HandleFunc("POST /events/{eventID}/unregister", requireAuth(attendees.Unregister))
	mux.HandleFunc("GET /events/user/registered", requireAuth(attendees.ListRegistered))

	// Likes and reviews
	mux.HandleFunc("POST /events/{eventID}/like", requireAuth(engagement.Like))
	mux.HandleFunc("POST /events/{eventID}/unlike", requireAuth(engagement.Unlike))
	mux.HandleFunc("GET /events/{eventID}/reviews", requireAuth(engagement.ListReviews))
	mux.HandleFunc("POST /events/{eventID}/reviews", requireAuth(engagement.AddReview))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("GatherApp API"))
	})

	return mux
}
