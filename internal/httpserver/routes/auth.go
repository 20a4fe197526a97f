package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.Login(d))
		r.Post("/refresh", handlers.Refresh(d))
		r.Post("/verify", handlers.Verify(d))
		r.Get("/status", handlers.AuthStatus(d))
		r.With(mw.AuthenticateOptional(d)).Post("/logout", handlers.Logout(d))
		r.With(mw.Authenticate(d, false)).Get("/me", handlers.Me(d))
		r.With(mw.Authenticate(d, false), mw.Authorize(d, auth.PermAdminAccess)).Post("/sweep", handlers.Sweep(d))
	})
}
