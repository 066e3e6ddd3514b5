package cache

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/gestalt/pkg/observability"
)

const keyType = "layout"

// Entry is the envelope stored for each fingerprint.
type Entry struct {
	Fingerprint string          `json:"fingerprint"`
	CreatedAt   time.Time       `json:"created_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Spec        json.RawMessage `json:"spec"`
}

// ComputeFunc produces the validated specification for a fingerprint. It
// runs at most once per fingerprint at a time.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// ResultsOptions configures Results.
type ResultsOptions struct {
	Keyer  Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// Results is the single-flight result cache. Concurrent requests for the
// same fingerprint share one computation; only successful results are
// stored.
type Results struct {
	backend Cache
	keyer   Keyer
	ttl     time.Duration
	logger  *log.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewResults wraps backend. A nil backend gets a MemoryCache.
func NewResults(backend Cache, opts ResultsOptions) *Results {
	if backend == nil {
		backend = NewMemoryCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Results{
		backend: backend,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		now:     time.Now,
	}
}

// Lookup returns the live entry for fingerprint. Backend errors, corrupt
// envelopes and expired entries are all misses.
func (r *Results) Lookup(ctx context.Context, fingerprint string) (*Entry, bool) {
	e, ok := r.lookup(ctx, fingerprint)
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return e, ok
}

func (r *Results) lookup(ctx context.Context, fingerprint string) (*Entry, bool) {
	key := r.keyer.LayoutKey(fingerprint)
	data, hit, err := r.backend.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Fingerprint != fingerprint {
		r.logger.Warn("discarding corrupt cache entry", "key", key)
		return nil, false
	}
	if !e.ExpiresAt.IsZero() && r.now().After(e.ExpiresAt) {
		return nil, false
	}
	return &e, true
}

// GetOrCompute returns the cached entry for fingerprint, or runs compute and
// stores its result. hit reports whether the entry came from the backend.
//
// Callers waiting on a shared computation may leave early through ctx; the
// computation itself runs detached from any one caller's cancellation and
// still commits its result. Errors are returned to every waiter and never
// stored, so the next request recomputes.
func (r *Results) GetOrCompute(ctx context.Context, fingerprint string, compute ComputeFunc) (entry *Entry, hit bool, err error) {
	if e, ok := r.Lookup(ctx, fingerprint); ok {
		return e, true, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(fingerprint, func() (any, error) {
		if e, ok := r.lookup(detached, fingerprint); ok {
			return e, nil
		}
		spec, err := compute(detached)
		if err != nil {
			return nil, err
		}
		return r.store(detached, fingerprint, spec), nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*Entry), false, nil
	}
}

// store writes spec under fingerprint. A failed write is logged; the entry
// is still returned to the callers.
func (r *Results) store(ctx context.Context, fingerprint string, spec []byte) *Entry {
	now := r.now().UTC()
	e := &Entry{
		Fingerprint: fingerprint,
		CreatedAt:   now,
		ExpiresAt:   now.Add(r.ttl),
		Spec:        spec,
	}
	data, err := json.Marshal(e)
	if err != nil {
		r.logger.Warn("cache encode failed", "fingerprint", fingerprint, "err", err)
		return e
	}
	key := r.keyer.LayoutKey(fingerprint)
	if err := r.backend.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("cache write failed", "key", key, "err", err)
		return e
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return e
}

// Invalidate removes the entry for fingerprint.
func (r *Results) Invalidate(ctx context.Context, fingerprint string) error {
	return r.backend.Delete(ctx, r.keyer.LayoutKey(fingerprint))
}

// TTL returns the entry lifetime.
func (r *Results) TTL() time.Duration { return r.ttl }

// Backend returns the underlying store.
func (r *Results) Backend() Cache { return r.backend }

// Close closes the backend.
func (r *Results) Close() error {
	return r.backend.Close()
}
