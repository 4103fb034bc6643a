// Package cache defines the port interfaces for the response cache and its
// cross-instance invalidation.
package cache

import "context"

// Store is an in-process key-value cache. Values are whatever the caller
// stored; the response middleware stores JSON payloads and the read-through
// helper stores typed query results.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key when present and not expired.
	Get(key string) (any, bool)
	// Set stores value under key, replacing any previous entry.
	Set(key string, value any)
	// Delete removes key and reports whether it was present.
	Delete(key string) bool
	// Clear removes every entry.
	Clear()
	// Keys returns a sorted snapshot of the current keys.
	Keys() []string
	// Len returns the number of stored entries, which may include expired
	// entries that have not been accessed yet.
	Len() int
}

// Op identifies the kind of invalidation broadcast between instances.
type Op string

const (
	OpDelete  Op = "delete"
	OpPattern Op = "pattern"
	OpClear   Op = "clear"
)

// Invalidation is a cache mutation made on one instance that the other
// instances should mirror.
type Invalidation struct {
	Origin string `json:"origin"`
	Op     Op     `json:"op"`
	Key    string `json:"key,omitempty"`
}

// Publisher broadcasts local invalidations.
type Publisher interface {
	Publish(ctx context.Context, inv Invalidation) error
}
