// Package cache stores validated layout specifications by source fingerprint.
//
// Backends implement [Cache]: an in-process [MemoryCache] (the default), a
// [FileCache] for the CLI, [RedisCache] and [MongoCache] for shared
// deployments, and [NullCache] to disable caching. [Results] sits on top of a
// backend and adds entry envelopes, TTLs and single-flight computation.
//
// Backend errors never fail a composition: reads that error are treated as
// misses and failed writes are logged and dropped.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// DefaultTTL is how long a cached specification stays valid.
const DefaultTTL = 24 * time.Hour

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired key is a miss
	// (hit == false) and not an error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer maps fingerprints to backend keys.
type Keyer interface {
	LayoutKey(fingerprint string) string
}

// DefaultKeyer produces keys of the form "layout:<fingerprint>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns the key for a layout specification.
func (DefaultKeyer) LayoutKey(fingerprint string) string {
	return "layout:" + fingerprint
}

// Hash computes a SHA-256 hash of data as a 64-character hex string.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
