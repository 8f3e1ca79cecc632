package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cowrite/internal/api"
	"cowrite/internal/handlers"
)

// New mounts the REST surface and the collaboration websocket.
func New(auth *handlers.AuthHandler, docs *handlers.DocumentHandler, collab *api.Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/auth/register", auth.RegisterHandler)
	r.Post("/api/v1/auth/login", auth.LoginHandler)

	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthRequired(jwtSecret))

		r.Get("/api/v1/auth/me", auth.MeHandler)

		r.Post("/api/v1/documents", docs.CreateHandler)
		r.Get("/api/v1/documents", docs.ListHandler)
		r.Get("/api/v1/documents/{id}", docs.GetHandler)
		r.Patch("/api/v1/documents/{id}", docs.UpdateHandler)
		r.Delete("/api/v1/documents/{id}", docs.DeleteHandler)
	})

	// websocket authenticates from the handshake token, not the header
	r.Get("/ws", collab.CollabWS)

	return r
}
