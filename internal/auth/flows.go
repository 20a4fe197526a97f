package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
)

// User is the public projection of an identity returned by login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenPair is the session credential pair handed to the client.
type TokenPair struct {
	AccessToken        string `json:"accessToken"`
	RefreshToken       string `json:"refreshToken"`
	AccessTokenExpiry  string `json:"accessTokenExpiry"`
	RefreshTokenExpiry string `json:"refreshTokenExpiry"`
}

// Session is the result of a successful login.
type Session struct {
	User      User      `json:"user"`
	Tokens    TokenPair `json:"tokens"`
	LoginTime time.Time `json:"loginTime"`
}

// Refreshed is the result of a successful refresh.
type Refreshed struct {
	AccessToken       string `json:"accessToken"`
	AccessTokenExpiry string `json:"accessTokenExpiry"`
}

// Login authenticates the credentials and issues a fresh token pair. On
// failure nothing is added to the active set.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	id, err := s.principal.Authenticate(username, password)
	if err != nil {
		s.log.Warn("login failed", logger.String("username", username))
		return nil, err
	}

	access, err := s.IssueAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("login succeeded", logger.String("username", id.Username))

	return &Session{
		User: User{ID: id.ID, Username: id.Username, Role: id.Role},
		Tokens: TokenPair{
			AccessToken:        access,
			RefreshToken:       refresh,
			AccessTokenExpiry:  FormatTTL(s.opts.AccessTTL),
			RefreshTokenExpiry: FormatTTL(s.opts.RefreshTTL),
		},
		LoginTime: s.opts.Now().UTC(),
	}, nil
}

// Refresh exchanges an active refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Refreshed, error) {
	claims, err := s.Verify(ctx, refreshToken, KindRefresh)
	if err != nil {
		return nil, err
	}

	id, ok := s.IdentityFor(claims)
	if !ok {
		return nil, apperr.Authentication(ReasonClaims, "Token subject no longer exists")
	}

	access, err := s.IssueAccessToken(id)
	if err != nil {
		return nil, err
	}
	return &Refreshed{AccessToken: access, AccessTokenExpiry: FormatTTL(s.opts.AccessTTL)}, nil
}

// Logout revokes refreshToken if one is given. It never fails because the
// token is unknown.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.Revoke(ctx, refreshToken)
}

// FormatTTL renders a lifetime the way clients configure it: "30m", "7d".
func FormatTTL(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
}
