package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/auth"
	"github.com/MrSnakeDoc/bigbrother/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/utils"
	"github.com/MrSnakeDoc/bigbrother/internal/validation"
)

type loginRequest struct {
	Username string `json:"username" validate:"max=128"`
	Password string `json:"password" validate:"max=1024"`
}

type loginResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	User      auth.User      `json:"user"`
	Tokens    auth.TokenPair `json:"tokens"`
	LoginTime time.Time      `json:"loginTime"`
}

// Login exchanges credentials for a token pair.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(r, &req); err != nil {
			WriteError(d, w, err)
			return
		}
		if req.Username == "" || req.Password == "" {
			WriteError(d, w, apperr.Validation("Username and password are required"))
			return
		}
		if msgs, ok := validation.Struct(req); !ok {
			WriteError(d, w, apperr.Validation("Invalid credentials format", msgs...))
			return
		}

		session, err := d.Auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			d.Logger.Warn("login rejected",
				logger.String("username", req.Username),
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			writeFailure(d, w, "Authentication failed", err)
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Success:   true,
			Message:   "Login successful",
			User:      session.User,
			Tokens:    session.Tokens,
			LoginTime: session.LoginTime,
		})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	AccessToken       string `json:"accessToken"`
	AccessTokenExpiry string `json:"accessTokenExpiry"`
}

// Refresh issues a new access token for an active refresh token.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := decode(r, &req); err != nil {
			WriteError(d, w, err)
			return
		}
		if req.RefreshToken == "" {
			WriteError(d, w, apperr.Validation("Refresh token is required"))
			return
		}

		out, err := d.Auth.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeFailure(d, w, "Token refresh failed", err)
			return
		}

		writeJSON(w, http.StatusOK, refreshResponse{
			Success:           true,
			Message:           "Token refreshed successfully",
			AccessToken:       out.AccessToken,
			AccessTokenExpiry: out.AccessTokenExpiry,
		})
	}
}

type messageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Logout revokes the refresh token in the body, if any. It always succeeds.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		// a malformed body is treated like an empty one
		_ = decode(r, &req)

		if err := d.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
			d.Logger.Warn("logout revoke failed", logger.Error(err))
		}
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			d.Logger.Info("user logged out", logger.String("username", id.Username))
		}

		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
	}
}

type meResponse struct {
	Success       bool          `json:"success"`
	User          auth.Identity `json:"user"`
	Authenticated bool          `json:"authenticated"`
	Timestamp     string        `json:"timestamp"`
}

// Me returns the caller's current identity.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := auth.IdentityFrom(r.Context())
		id, ok := d.Auth.Principal().Lookup(caller.ID)
		if !ok {
			WriteError(d, w, apperr.NotFound("User"))
			return
		}
		writeJSON(w, http.StatusOK, meResponse{
			Success:       true,
			User:          id,
			Authenticated: true,
			Timestamp:     timestamp(d),
		})
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifiedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type verifyResponse struct {
	Success   bool          `json:"success"`
	Valid     bool          `json:"valid"`
	User      *verifiedUser `json:"user,omitempty"`
	Error     string        `json:"error,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp string        `json:"timestamp"`
}

// Verify reports whether the access token in the body is valid.
func Verify(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := decode(r, &req); err != nil {
			WriteError(d, w, err)
			return
		}
		if req.Token == "" {
			WriteError(d, w, apperr.Validation("Token is required"))
			return
		}

		claims, err := d.Auth.Verify(r.Context(), req.Token, auth.KindAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, verifyResponse{
				Error:     "Invalid token",
				Message:   errorMessage(err),
				Timestamp: timestamp(d),
			})
			return
		}

		writeJSON(w, http.StatusOK, verifyResponse{
			Success:   true,
			Valid:     true,
			User:      &verifiedUser{ID: claims.UserID, Username: claims.Username, Role: claims.Role},
			Timestamp: timestamp(d),
		})
	}
}

type authStatusResponse struct {
	Success    bool              `json:"success"`
	Configured auth.ConfigStatus `json:"configured"`
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
}

// AuthStatus reports whether the admin principal is configured.
func AuthStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := d.Auth.Principal().Status()
		status := "configured"
		if !st.IsFullyConfigured {
			status = "not_configured"
		}
		writeJSON(w, http.StatusOK, authStatusResponse{
			Success:    true,
			Configured: st,
			Status:     status,
			Timestamp:  timestamp(d),
		})
	}
}

// Sweep triggers an immediate refresh token sweep without waiting for it.
func Sweep(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Sweeper == nil {
			WriteError(d, w, apperr.New(apperr.KindNotFound, "Token sweeper not running"))
			return
		}

		if !d.Sweeper.Trigger() {
			d.Logger.Warn("token sweep already pending",
				logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
			writeJSON(w, http.StatusTooManyRequests, messageResponse{
				Message:   "Sweep already pending, please wait",
				Timestamp: timestamp(d),
			})
			return
		}

		d.Logger.Info("manual token sweep triggered",
			logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))
		writeJSON(w, http.StatusAccepted, messageResponse{
			Success:   true,
			Message:   "Sweep triggered",
			Timestamp: timestamp(d),
		})
	}
}
