package api

import (
	"net/http"
	"time"

	// Registers the Swagger document served under /api/swagger.
	_ "relay-chat/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates the chi router with every route of the relay.
func NewRouter(chatHandler *ChatHandler, wsHandler *WebSocketHandler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Plain JSON routes. A turn can take as long as the remote model
		// needs, so message endpoints stay outside the timeout group.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/settings", chatHandler.GetSettings)

			r.Post("/sessions", chatHandler.CreateSession)
			r.Get("/sessions/{sessionID}", chatHandler.GetSession)
			r.Delete("/sessions/{sessionID}", chatHandler.DeleteSession)
			r.Get("/sessions/{sessionID}/debug", chatHandler.GetDebug)
			r.Delete("/sessions/{sessionID}/debug", chatHandler.ClearDebug)
		})

		r.Group(func(r chi.Router) {
			r.Post("/sessions/{sessionID}/messages", chatHandler.SendMessage)
			r.Post("/sessions/{sessionID}/messages/stream", chatHandler.StreamMessage)
			r.Get("/ws", wsHandler.HandleWebSocket)
		})
	})

	return r
}
