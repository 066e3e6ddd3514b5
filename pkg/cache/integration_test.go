//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// Run with: go test -tags integration ./pkg/cache
// GESTALT_TEST_REDIS_ADDR and GESTALT_TEST_MONGO_URI select the servers.

func integrationBackends(t *testing.T) map[string]Cache {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := map[string]Cache{}
	if addr := os.Getenv("GESTALT_TEST_REDIS_ADDR"); addr != "" {
		c, err := NewRedisCache(ctx, RedisConfig{Addr: addr})
		if err != nil {
			t.Fatalf("redis: %v", err)
		}
		out["redis"] = c
	}
	if uri := os.Getenv("GESTALT_TEST_MONGO_URI"); uri != "" {
		c, err := NewMongoCache(ctx, MongoConfig{URI: uri, Database: "gestalt_test"})
		if err != nil {
			t.Fatalf("mongo: %v", err)
		}
		out["mongo"] = c
	}
	if len(out) == 0 {
		t.Skip("no integration backends configured")
	}
	return out
}

func TestIntegrationBackends(t *testing.T) {
	ctx := context.Background()
	for name, c := range integrationBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer c.Close()
			key := "itest:" + time.Now().Format(time.RFC3339Nano)

			if _, hit, err := c.Get(ctx, key); hit || err != nil {
				t.Fatalf("fresh key: hit=%v err=%v", hit, err)
			}
			if err := c.Set(ctx, key, []byte("spec"), time.Minute); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, hit, err := c.Get(ctx, key)
			if err != nil || !hit || string(data) != "spec" {
				t.Fatalf("Get = %q, %v, %v", data, hit, err)
			}
			if err := c.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}

			r := NewResults(c, ResultsOptions{Keyer: NewScopedKeyer(nil, "itest:")})
			if _, _, err := r.GetOrCompute(ctx, key, func(context.Context) ([]byte, error) {
				return []byte(`{}`), nil
			}); err != nil {
				t.Fatalf("GetOrCompute: %v", err)
			}
			if _, ok := r.Lookup(ctx, key); !ok {
				t.Error("entry not visible through backend")
			}
			_ = r.Invalidate(ctx, key)
		})
	}
}
