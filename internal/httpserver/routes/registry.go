package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

// Scope selects where a registrar is mounted.
type Scope int

const (
	// ScopeAPI routes live under /api with rate limiting, body limit and
	// the request timeout.
	ScopeAPI Scope = iota
	// ScopeStream routes live under /api without the request timeout.
	ScopeStream
	// ScopeRoot routes are operational endpoints at the root.
	ScopeRoot
)

type entry struct {
	scope Scope
	reg   Registrar
	mws   []Middleware
}

var registry []entry

// Register a registrar under /api with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	RegisterIn(ScopeAPI, reg, mws...)
}

// RegisterIn registers a registrar in the given scope.
func RegisterIn(scope Scope, reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{scope: scope, reg: reg, mws: mws})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	r.Group(func(root chi.Router) {
		root.Use(timeout(d))
		mount(root, d, ScopeRoot)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateLimitBurst,
			RefillPerIPPerMin: d.RateLimitPerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}))
		api.Use(mw.BodyLimit(d.MaxBodyBytes))

		api.Group(func(g chi.Router) { mount(g, d, ScopeStream) })
		api.Group(func(g chi.Router) {
			g.Use(timeout(d))
			mount(g, d, ScopeAPI)
		})
	})
}

func mount(r chi.Router, d deps.Deps, scope Scope) {
	for _, e := range registry {
		if e.scope != scope {
			continue
		}
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}

func timeout(d deps.Deps) Middleware {
	if d.RequestTimeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(d.RequestTimeout)
}
