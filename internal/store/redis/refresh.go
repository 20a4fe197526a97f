package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minTTL keeps already-expired tokens addressable long enough to be swept.
const minTTL = time.Second

// RefreshStore keeps the active refresh-token set in Redis. Each token lives
// under its own key with a TTL matching the token expiry, and its digest is
// indexed in a set so the sweeper can enumerate it.
type RefreshStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRefreshStore creates a new Redis-backed refresh store
func NewRefreshStore(client redis.UniversalClient) *RefreshStore {
	return &RefreshStore{
		client: client,
		now:    time.Now,
	}
}

// Add stores the token and indexes its digest in one transaction
func (s *RefreshStore) Add(ctx context.Context, token string, expiresAt time.Time) error {
	digest := Digest(token)

	ttl := expiresAt.Sub(s.now())
	if ttl < minTTL {
		ttl = minTTL
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, RefreshKey(digest), token, ttl)
		pipe.SAdd(ctx, AllRefreshKey(), digest)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// Has reports whether the token is active
func (s *RefreshStore) Has(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, RefreshKey(Digest(token))).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check refresh token: %w", err)
	}
	return n == 1, nil
}

// Remove deletes the token and its index entry; absent tokens are ignored
func (s *RefreshStore) Remove(ctx context.Context, token string) error {
	return s.removeDigest(ctx, Digest(token))
}

func (s *RefreshStore) removeDigest(ctx context.Context, digest string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, RefreshKey(digest))
		pipe.SRem(ctx, AllRefreshKey(), digest)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove refresh token: %w", err)
	}
	return nil
}

// Iterate walks the indexed digests. Index entries whose key already expired
// in Redis are dropped from the set on the way.
func (s *RefreshStore) Iterate(ctx context.Context, fn func(token string) bool) error {
	digests, err := s.client.SMembers(ctx, AllRefreshKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list refresh tokens: %w", err)
	}

	for _, digest := range digests {
		token, err := s.client.Get(ctx, RefreshKey(digest)).Result()
		if errors.Is(err, redis.Nil) {
			if err := s.client.SRem(ctx, AllRefreshKey(), digest).Err(); err != nil {
				return fmt.Errorf("failed to prune refresh index: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to get refresh token: %w", err)
		}
		if !fn(token) {
			return nil
		}
	}
	return nil
}

// Count returns the number of indexed digests
func (s *RefreshStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, AllRefreshKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count refresh tokens: %w", err)
	}
	return n, nil
}
