package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

func init() {
	RegisterIn(ScopeStream, registerLogStream)
	Register(registerLogs)
}

// The live stream is the only route accepting ?token=, since EventSource
// cannot send an Authorization header.
func registerLogStream(r chi.Router, d deps.Deps) {
	r.With(mw.Authenticate(d, true), mw.Authorize(d, auth.PermViewLogs)).
		Get("/logs/{appName}", handlers.StreamLogs(d))
}

func registerLogs(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(d, false), mw.Authorize(d, auth.PermViewLogs))
		r.Get("/logs/{appName}/historical", handlers.HistoricalLogs(d))
		r.Get("/frontend-logs/{appName}", handlers.FrontendLogs(d))
	})
}
