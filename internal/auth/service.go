package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/bigbrother/internal/apperr"
	"github.com/MrSnakeDoc/bigbrother/internal/logger"
	"github.com/MrSnakeDoc/bigbrother/internal/metrics"
	"github.com/MrSnakeDoc/bigbrother/internal/validation"
)

// Token failure reasons carried by *apperr.Error.Reason.
const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
	ReasonClaims    = "claims"
	ReasonWrongKind = "wrong_kind"
	ReasonRevoked   = "revoked"
)

// Options configures token signing and lifetimes.
type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Audience   string

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Service issues, verifies and revokes session tokens and runs the
// login/refresh/logout flows on top of them.
type Service struct {
	opts      Options
	principal *Principal
	store     Store
	log       logger.Logger
	parser    *jwt.Parser
}

func NewService(opts Options, principal *Principal, store Store, log logger.Logger) (*Service, error) {
	if opts.Secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, fmt.Errorf("auth: token lifetimes must be > 0 (access=%v, refresh=%v)", opts.AccessTTL, opts.RefreshTTL)
	}
	if store == nil {
		return nil, errors.New("auth: nil refresh token store")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		opts:      opts,
		principal: principal,
		store:     store,
		log:       log,
		// Time-based claims are checked against opts.Now in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Principal returns the configured principal.
func (s *Service) Principal() *Principal { return s.principal }

// AccessTTL returns the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.opts.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.opts.RefreshTTL }

// IssueAccessToken signs a short-lived access token for id.
func (s *Service) IssueAccessToken(id Identity) (string, error) {
	token, _, err := s.sign(id, KindAccess, s.opts.AccessTTL)
	if err != nil {
		return "", err
	}
	metrics.TokenIssued(string(KindAccess))
	return token, nil
}

// IssueRefreshToken signs a refresh token for id and records it in the
// active set. No token is returned unless the store accepted it.
func (s *Service) IssueRefreshToken(ctx context.Context, id Identity) (string, error) {
	token, expiresAt, err := s.sign(id, KindRefresh, s.opts.RefreshTTL)
	if err != nil {
		return "", err
	}
	if err := s.store.Add(ctx, token, expiresAt); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	metrics.TokenIssued(string(KindRefresh))
	return token, nil
}

func (s *Service) sign(id Identity, kind Kind, ttl time.Duration) (string, time.Time, error) {
	now := s.opts.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID:   id.ID,
		Username: id.Username,
		Role:     id.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			Issuer:    s.opts.Issuer,
			Audience:  jwt.ClaimStrings{s.opts.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, issuer, audience, expiry and kind. Refresh tokens
// must additionally be present in the active set, otherwise the error kind
// is apperr.KindRevokedToken.
func (s *Service) Verify(ctx context.Context, token string, want Kind) (*Claims, error) {
	claims, err := s.verifyStateless(token, want)
	if err != nil {
		metrics.VerifyFailed(reasonOf(err))
		return nil, err
	}

	if want == KindRefresh {
		active, err := s.store.Has(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("lookup refresh token: %w", err)
		}
		if !active {
			metrics.VerifyFailed(ReasonRevoked)
			return nil, apperr.New(apperr.KindRevokedToken, "Refresh token revoked").WithReason(ReasonRevoked)
		}
	}
	return claims, nil
}

func (s *Service) verifyStateless(token string, want Kind) (*Claims, error) {
	if token == "" {
		return nil, apperr.Authentication(ReasonMissing, "Token missing")
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.opts.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, &apperr.Error{Kind: apperr.KindAuthentication, Message: "Invalid token signature", Reason: ReasonSignature, Err: err}
		}
		return nil, &apperr.Error{Kind: apperr.KindAuthentication, Message: "Malformed token", Reason: ReasonMalformed, Err: err}
	}

	now := s.opts.Now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, apperr.Authentication(ReasonExpired, "Token expired")
	}
	if !claims.VerifyIssuer(s.opts.Issuer, true) || !claims.VerifyAudience(s.opts.Audience, true) {
		return nil, apperr.Authentication(ReasonClaims, "Token issuer or audience mismatch")
	}
	if msgs, ok := validation.Struct(claims); !ok {
		return nil, apperr.Authentication(ReasonClaims, "Invalid token claims").WithDetails(msgs...)
	}
	if claims.Kind != want {
		return nil, apperr.Authentication(ReasonWrongKind, "Invalid token type")
	}
	return claims, nil
}

// Revoke removes a refresh token from the active set. Revoking an unknown
// token is a no-op.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.store.Remove(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// SweepExpired evicts every active refresh token that no longer verifies and
// returns how many were evicted.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	var stale []string
	err := s.store.Iterate(ctx, func(token string) bool {
		if _, err := s.verifyStateless(token, KindRefresh); err != nil {
			stale = append(stale, token)
		}
		return ctx.Err() == nil
	})
	if err != nil {
		return 0, fmt.Errorf("iterate refresh tokens: %w", err)
	}

	evicted := 0
	for _, token := range stale {
		if err := s.store.Remove(ctx, token); err != nil {
			return evicted, fmt.Errorf("evict refresh token: %w", err)
		}
		evicted++
	}
	metrics.TokensSwept(evicted)
	return evicted, nil
}

// IdentityFor resolves the claims of a verified token to the current
// identity of its subject.
func (s *Service) IdentityFor(claims *Claims) (Identity, bool) {
	return s.principal.Lookup(claims.UserID)
}

func reasonOf(err error) string {
	if ae, ok := apperr.As(err); ok && ae.Reason != "" {
		return ae.Reason
	}
	return "unknown"
}
