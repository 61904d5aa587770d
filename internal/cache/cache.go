// Package cache provides a time-boxed key/value store used to avoid
// redundant upstream calls. Entries are re-derivable, never authoritative:
// a miss is a silent fallback to the producing operation.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a TTL-bounded byte cache. The in-process implementation is
// Memory; Redis backs the same contract for horizontally scaled deployments.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Fetch returns the cached value for key, or invokes produce and caches the
// result. The second return reports whether the value came from the cache.
// A producer error propagates unchanged and caches nothing.
func Fetch[T any](ctx context.Context, s Store, key string, produce func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("cache.Fetch: %w", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, true, nil
		}
		// Undecodable entry: treat as a miss and refill below.
	}

	v, err := produce(ctx)
	if err != nil {
		return zero, false, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		return zero, false, fmt.Errorf("cache.Fetch: marshal: %w", err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return zero, false, fmt.Errorf("cache.Fetch: %w", err)
	}

	return v, false, nil
}
