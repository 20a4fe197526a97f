package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

func init() { Register(registerApps) }

func registerApps(r chi.Router, d deps.Deps) {
	r.Route("/apps", func(r chi.Router) {
		r.Use(mw.Authenticate(d, false))
		r.With(mw.Authorize(d, auth.PermViewApps)).Get("/", handlers.ListApps(d))
		r.With(mw.Authorize(d, auth.PermViewApps)).Get("/{name}", handlers.GetApp(d))
		r.With(mw.Authorize(d, auth.PermRestartApps)).Post("/{name}/restart", handlers.RestartApp(d))
		r.With(mw.Authorize(d, auth.PermStopApps)).Post("/{name}/stop", handlers.StopApp(d))
	})
}
