// Package memory keeps the active refresh-token set in process memory.
// Tokens do not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"
)

// RefreshStore is a mutex-guarded map of token -> expiry.
type RefreshStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

// NewRefreshStore creates an empty store
func NewRefreshStore() *RefreshStore {
	return &RefreshStore{
		tokens: make(map[string]time.Time),
	}
}

// Add records a token as active
func (s *RefreshStore) Add(_ context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = expiresAt
	return nil
}

// Has reports whether token is active
func (s *RefreshStore) Has(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[token]
	return ok, nil
}

// Remove deletes a token; absent tokens are ignored
func (s *RefreshStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)
	return nil
}

// Iterate walks a snapshot of the set, so fn may call Remove.
func (s *RefreshStore) Iterate(ctx context.Context, fn func(token string) bool) error {
	s.mu.RLock()
	snapshot := make([]string, 0, len(s.tokens))
	for token := range s.tokens {
		snapshot = append(snapshot, token)
	}
	s.mu.RUnlock()

	for _, token := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(token) {
			return nil
		}
	}
	return nil
}

// Count returns the number of active tokens
func (s *RefreshStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tokens)
}
