package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrComputeCaches(t *testing.T) {
	ctx := context.Background()
	r := NewResults(nil, ResultsOptions{})
	var calls int
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte(`{"pages":[]}`), nil
	}

	e, hit, err := r.GetOrCompute(ctx, "fp", compute)
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	if e.Fingerprint != "fp" || string(e.Spec) != `{"pages":[]}` {
		t.Errorf("entry = %+v", e)
	}
	if got := e.ExpiresAt.Sub(e.CreatedAt); got != DefaultTTL {
		t.Errorf("ttl = %v, want %v", got, DefaultTTL)
	}

	e2, hit, err := r.GetOrCompute(ctx, "fp", compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
	if string(e2.Spec) != string(e.Spec) || calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	ctx := context.Background()
	r := NewResults(nil, ResultsOptions{})

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`{}`), nil
	}

	const n = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, _, err := r.GetOrCompute(ctx, "same", compute)
			errs <- err
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("compute ran %d times, want 1", c)
	}
}

func TestGetOrComputeErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryCache()
	r := NewResults(backend, ResultsOptions{})
	boom := errors.New("boom")

	_, _, err := r.GetOrCompute(ctx, "fp", func(context.Context) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if backend.Len() != 0 {
		t.Fatal("failed computation was stored")
	}

	_, hit, err := r.GetOrCompute(ctx, "fp", func(context.Context) ([]byte, error) { return []byte(`{}`), nil })
	if err != nil || hit {
		t.Errorf("retry: hit=%v err=%v, want fresh computation", hit, err)
	}
}

func TestGetOrComputeAbandonedCallerStillCommits(t *testing.T) {
	r := NewResults(nil, ResultsOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	done := make(chan struct{})
	compute := func(cctx context.Context) ([]byte, error) {
		defer close(done)
		<-release
		if cctx.Err() != nil {
			return nil, cctx.Err()
		}
		return []byte(`{}`), nil
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, _, err := r.GetOrCompute(ctx, "fp", compute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	close(release)
	<-done
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := r.Lookup(context.Background(), "fp"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("abandoned computation was not committed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLookupExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewResults(NewMemoryCache(), ResultsOptions{TTL: time.Minute})
	r.now = func() time.Time { return now }

	if _, _, err := r.GetOrCompute(ctx, "fp", func(context.Context) ([]byte, error) { return []byte(`{}`), nil }); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Lookup(ctx, "fp"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := r.Lookup(ctx, "fp"); ok {
		t.Error("expired entry returned")
	}
}

type failingCache struct{ NullCache }

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestBackendFailuresAreMisses(t *testing.T) {
	r := NewResults(&failingCache{}, ResultsOptions{})
	e, hit, err := r.GetOrCompute(context.Background(), "fp", func(context.Context) ([]byte, error) {
		return []byte(`{"ok":true}`), nil
	})
	if err != nil || hit {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if string(e.Spec) != `{"ok":true}` {
		t.Errorf("spec = %s", e.Spec)
	}
}
