package auth

import (
	"github.com/golang-jwt/jwt/v4"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload of every token the service signs.
type Claims struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Role     string `json:"role,omitempty"`
	Kind     Kind   `json:"type" validate:"required,oneof=access refresh"`

	jwt.RegisteredClaims
}
