package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"deskcalc/internal/auth"
)

// SetupRouter wires the public auth routes and the JWT-protected
// calculator routes.
func SetupRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Post("/calculate", h.Calculate)
			r.Get("/history", h.History)
			r.Get("/history/saved", h.SavedHistory)
			r.Post("/undo", h.Undo)
			r.Post("/redo", h.Redo)
			r.Post("/clear", h.Clear)
		})
	})

	return r
}
