package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(mw.Authenticate(d, false), mw.Authorize(d, auth.PermViewApps))
		r.Get("/system-stats", handlers.SystemStats(d))
	})
}
