package handler

import (
	"net/http"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Accounts      *service.AccountService
	Clubs         *service.ClubService
	Membership    *service.MembershipService
	Events        *service.EventService
	Participation *service.ParticipationService
	Store         Pinger

	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	Idempotency    *middleware.IdempotencyStore
}

// NewRouter registers every route and wraps the mux in the global middleware chain
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Accounts)
	adminUsersHandler := NewAdminUsersHandler(cfg.Accounts)
	clubHandler := NewClubHandler(cfg.Clubs, cfg.Membership)
	eventHandler := NewEventHandler(cfg.Events, cfg.Participation)
	healthHandler := NewHealthHandler(cfg.Store)

	auth := middleware.Auth(cfg.Accounts)
	optional := middleware.OptionalAuth(cfg.Accounts)
	private := func(fn http.HandlerFunc) http.Handler { return auth(fn) }
	public := func(fn http.HandlerFunc) http.Handler { return optional(fn) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Accounts
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.Handle("GET /v1/profile", private(authHandler.Profile))
	mux.Handle("PATCH /v1/admin/users/{userId}/role", private(adminUsersHandler.UpdateRole))
	mux.Handle("POST /v1/admin/users/{userId}/deactivate", private(adminUsersHandler.Deactivate))

	// Clubs
	mux.Handle("GET /v1/clubs", public(clubHandler.List))
	mux.Handle("POST /v1/clubs", private(clubHandler.Create))
	mux.Handle("GET /v1/clubs/{clubId}", public(clubHandler.Get))
	mux.Handle("PATCH /v1/clubs/{clubId}", private(clubHandler.Update))
	mux.Handle("DELETE /v1/clubs/{clubId}", private(clubHandler.Delete))
	mux.Handle("POST /v1/clubs/{clubId}/join", private(clubHandler.Join))
	mux.Handle("POST /v1/clubs/{clubId}/leave", private(clubHandler.Leave))
	mux.Handle("GET /v1/clubs/{clubId}/members", private(clubHandler.Members))
	mux.Handle("GET /v1/clubs/{clubId}/requests", private(clubHandler.Requests))
	mux.Handle("POST /v1/clubs/{clubId}/requests/{userId}/approve", private(clubHandler.Approve))
	mux.Handle("POST /v1/clubs/{clubId}/requests/{userId}/reject", private(clubHandler.Reject))
	mux.Handle("PUT /v1/clubs/{clubId}/admins/{userId}", private(clubHandler.AddAdmin))
	mux.Handle("GET /v1/clubs/{clubId}/events", public(clubHandler.Events))

	// Events
	mux.Handle("GET /v1/events", public(eventHandler.List))
	mux.Handle("POST /v1/events", private(eventHandler.Create))
	mux.Handle("GET /v1/events/{eventId}", public(eventHandler.Get))
	mux.Handle("PATCH /v1/events/{eventId}", private(eventHandler.Update))
	mux.Handle("DELETE /v1/events/{eventId}", private(eventHandler.Delete))
	mux.Handle("POST /v1/events/{eventId}/rsvp", private(eventHandler.RSVP))
	mux.Handle("GET /v1/events/{eventId}/rsvps", private(eventHandler.RSVPs))
	mux.Handle("POST /v1/events/{eventId}/checkin", private(eventHandler.CheckIn))
	mux.Handle("POST /v1/events/{eventId}/feedback", private(eventHandler.SubmitFeedback))
	mux.Handle("GET /v1/events/{eventId}/feedback", private(eventHandler.Feedback))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, model.NewNotFoundError("route"))
	})

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.AllowedOrigins),
	}
	if cfg.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.Idempotency != nil {
		chain = append(chain, middleware.Idempotency(cfg.Idempotency))
	}
	chain = append(chain, middleware.Compress)

	return middleware.Chain(mux, chain...)
}
