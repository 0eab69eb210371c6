package handlers

import (
	"net/http"

	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/middleware"
)

// Services are the backends the REST routes call into.
type Services struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Contacts *service.ContactService
	Messages *service.MessageService
	Stats    *service.StatsService
}

// Register mounts the auth and REST routes on mux. Everything except signup, login, stats and
// health requires a bearer token signed with jwtSecret.
func Register(mux *http.ServeMux, svc Services, jwtSecret string) {
	authHandler := NewAuthHandler(svc.Auth, svc.Profiles)
	profileHandler := NewProfileHandler(svc.Profiles)
	contactHandler := NewContactHandler(svc.Contacts)
	messageHandler := NewMessageHandler(svc.Messages)
	statsHandler := NewStatsHandler(svc.Stats)

	auth := middleware.Auth(jwtSecret)

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /auth/v1/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/v1/token", authHandler.Login)
	mux.HandleFunc("GET /rest/v1/stats", statsHandler.Get)

	// Protected - Session
	mux.Handle("POST /auth/v1/logout", auth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /auth/v1/user", auth(http.HandlerFunc(authHandler.User)))

	// Protected - Profile
	mux.Handle("GET /rest/v1/profile", auth(http.HandlerFunc(profileHandler.Get)))
	mux.Handle("PATCH /rest/v1/profile", auth(http.HandlerFunc(profileHandler.Update)))

	// Protected - Contacts
	mux.Handle("GET /rest/v1/contacts", auth(http.HandlerFunc(contactHandler.List)))
	mux.Handle("POST /rest/v1/contacts", auth(http.HandlerFunc(contactHandler.Create)))

	// Protected - Messages
	mux.Handle("GET /rest/v1/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /rest/v1/messages", auth(http.HandlerFunc(messageHandler.Send)))
}
