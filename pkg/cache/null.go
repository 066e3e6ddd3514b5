package cache

import (
	"context"
	"time"
)

// NullCache is the "none" backend. It holds no layouts, so every request
// composes from scratch; [Results] still collapses concurrent requests for
// the same fingerprint into one composition.
type NullCache struct{}

// NewNullCache returns the backend used when caching is disabled.
func NewNullCache() Cache { return &NullCache{} }

// Get reports every fingerprint as absent.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the encoded layout.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete has nothing to invalidate.
func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
