package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/handlers"
)

const bearerPrefix = "Bearer "

// ExtractToken returns the bearer credential of r, or "". The Authorization
// header always wins; the token query parameter is only consulted when
// allowQuery is set, for clients such as EventSource that cannot send headers.
func ExtractToken(r *http.Request, allowQuery bool) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(h[len(bearerPrefix):])
		}
		return ""
	}
	if allowQuery {
		return r.URL.Query().Get("token")
	}
	return ""
}

func identify(d deps.Deps, r *http.Request, allowQuery bool) (auth.Identity, error) {
	token := ExtractToken(r, allowQuery)
	if token == "" {
		return auth.Identity{}, apperr.Authentication(auth.ReasonMissing, "Access token is required")
	}
	claims, err := d.Auth.Verify(r.Context(), token, auth.KindAccess)
	if err != nil {
		return auth.Identity{}, err
	}
	id, ok := d.Auth.IdentityFor(claims)
	if !ok {
		return auth.Identity{}, apperr.Authentication(auth.ReasonClaims, "User no longer exists")
	}
	return id, nil
}

// Authenticate rejects requests without a valid access token and attaches
// the identity to the request context otherwise.
func Authenticate(d deps.Deps, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(d, r, allowQuery)
			if err != nil {
				handlers.WriteError(d, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// AuthenticateOptional attaches the identity when the token verifies and
// lets the request through unauthenticated otherwise.
func AuthenticateOptional(d deps.Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := identify(d, r, false); err == nil {
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize requires an authenticated identity holding perm. It must run
// after Authenticate.
func Authorize(d deps.Deps, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				handlers.WriteError(d, w, apperr.Authentication(auth.ReasonMissing, "Authentication required"))
				return
			}
			if !id.HasPermission(perm) {
				handlers.WriteError(d, w, apperr.Authorization("Insufficient permissions").WithDetails("required: "+perm))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
