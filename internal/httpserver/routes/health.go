package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", handlers.Health(d))
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(d, false), mw.Authorize(d, auth.PermViewHealth))
			r.Get("/detailed", handlers.DetailedHealth(d))
			r.Get("/components", handlers.Components(d))
		})
	})
}
