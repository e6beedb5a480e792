// Package server wires HTTP handlers into a chi router for the chat relay.
package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes configures and returns the relay's HTTP router: health check,
// WebSocket endpoint, and the built-in chat page.
func Routes(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.ChatPage)
	r.Get("/healthz", h.Health)
	r.Get("/ws", h.WebSocket)
	return r
}
