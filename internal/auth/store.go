package auth

import (
	"context"
	"time"
)

// Store is the active refresh-token set. A refresh token verifies only while
// it is present here. Implementations must be safe for concurrent use.
type Store interface {
	// Add records token as active until expiresAt.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Has(ctx context.Context, token string) (bool, error)
	// Remove deletes token. Removing an absent token is not an error.
	Remove(ctx context.Context, token string) error
	// Iterate calls fn for every active token until fn returns false.
	// fn may call Remove.
	Iterate(ctx context.Context, fn func(token string) bool) error
}
