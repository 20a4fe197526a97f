package redis

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// KeyPrefixRefresh is the prefix for per-token keys
	KeyPrefixRefresh = "bigbrother:refresh:"
	// KeyAllRefresh is the key for the set of all active token digests
	KeyAllRefresh = "bigbrother:refresh:all"
)

// Digest returns the hex SHA-256 of a token. Keys are derived from the digest
// so the raw token never appears in a key name.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RefreshKey returns the Redis key holding a token by digest
func RefreshKey(digest string) string {
	return KeyPrefixRefresh + digest
}

// AllRefreshKey returns the key for the set of all active token digests
func AllRefreshKey() string {
	return KeyAllRefresh
}
