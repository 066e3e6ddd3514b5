package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestKeyers(t *testing.T) {
	if got := NewDefaultKeyer().LayoutKey("abc"); got != "layout:abc" {
		t.Errorf("LayoutKey = %q", got)
	}
	if got := NewScopedKeyer(nil, "staging:").LayoutKey("abc"); got != "staging:layout:abc" {
		t.Errorf("scoped LayoutKey = %q", got)
	}
}

// backends exercises the Cache contract shared by the local backends.
func backends(t *testing.T) map[string]Cache {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return map[string]Cache{
		"memory": NewMemoryCache(),
		"file":   fc,
	}
}

func TestCacheContract(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()

			if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
				t.Fatalf("empty Get: hit=%v err=%v", hit, err)
			}
			if err := c.Set(ctx, "k", []byte("v1"), time.Hour); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			data, hit, err := c.Get(ctx, "k")
			if err != nil || !hit || string(data) != "v2" {
				t.Fatalf("Get = %q, %v, %v", data, hit, err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := c.Delete(ctx, "k"); err != nil {
				t.Fatalf("second Delete: %v", err)
			}
			if _, hit, _ := c.Get(ctx, "k"); hit {
				t.Error("deleted key still present")
			}
		})
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.Set(ctx, "short", []byte("x"), time.Minute)
	c.Set(ctx, "long", []byte("y"), time.Hour)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, hit, _ := c.Get(ctx, "long"); !hit {
		t.Error("live entry missing")
	}

	c.Set(ctx, "other", []byte("z"), time.Minute)
	now = now.Add(2 * time.Minute)
	if n := c.Purge(); n != 1 {
		t.Errorf("Purge = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	buf := []byte("abc")
	c.Set(ctx, "k", buf, 0)
	buf[0] = 'X'

	got, _, _ := c.Get(ctx, "k")
	got[1] = 'Y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated: %q", again)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	c.Close()
	if _, _, err := c.Get(ctx, "k"); err != ErrClosed {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := c.Set(ctx, "k", nil, 0); err != ErrClosed {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestFileCacheExpiryAndClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", []byte("1"), time.Minute)
	c.Set(ctx, "b", []byte("2"), 0)
	now = now.Add(time.Hour)

	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("expired file entry returned")
	}
	if _, hit, _ := c.Get(ctx, "b"); !hit {
		t.Error("entry without ttl should not expire")
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("entry survived Clear")
	}
}
