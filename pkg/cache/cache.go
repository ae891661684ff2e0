// Package cache provides the response cache used by the API crawler.
//
// GitHub search and commit responses are cached between runs so that a
// resumed crawl does not re-spend rate-limit quota on repositories it has
// already seen. Three backends are provided:
//   - file: directory of JSON entries, the default for CLI usage
//   - redis: shared cache for runs spread across machines
//   - null: no-op, for --no-cache and tests
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that treat a miss as an error.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the interface for response cache backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
