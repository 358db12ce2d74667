// Package cache is the non-authoritative read layer in front of the product store.
//
// A miss is a normal result (found == false, err == nil). Entries self-expire after
// their TTL, so callers may treat any invalidation failure as bounded staleness.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a key/value store with per-entry time-to-live.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON loads key and decodes it into dst. A payload that fails to decode is
// reported as an error, never as a hit.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key for ttl.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
