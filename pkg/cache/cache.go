// Package cache provides the TTL cache behind the market gateway's search
// and trending lookups.
package cache

import "time"

// Cache is the interface the gateway stores responses behind.
type Cache interface {
	// Get returns (value, true) on a hit, (nil, false) on a miss.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}
