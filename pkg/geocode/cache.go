package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache stores adapter results keyed by query hash so re-runs and
// duplicate queries skip the network. A nil lookup result means miss.
type Cache interface {
	GetCachedGeocode(ctx context.Context, key string) (*Result, error)
	PutCachedGeocode(ctx context.Context, key string, res *Result) error
}

// CacheKey hashes a normalized query for cache storage.
func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return hex.EncodeToString(sum[:])
}
