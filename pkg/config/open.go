package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/advisory"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/pipeline"
)

// ParseLevel converts a level name into a log level.
func ParseLevel(s string) (log.Level, error) {
	if s == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "log level")
	}
	return lvl, nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/gestalt, or ~/.cache/gestalt.
func DefaultCacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, "gestalt"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "gestalt"), nil
}

// OpenBackend connects the configured cache backend.
func (c CacheConfig) OpenBackend(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendFile:
		dir := c.Dir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.RedisURL, Addr: c.RedisAddr})
	case BackendMongo:
		return cache.NewMongoCache(ctx, cache.MongoConfig{URI: c.MongoURI, Database: c.MongoDatabase})
	default:
		return cache.NewMemoryCache(), nil
	}
}

// Keyer returns the keyer for the configured prefix.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// Advisor returns the configured HTTP advisor, or nil when disabled.
func (c AdvisoryConfig) Advisor() advisory.Advisor {
	if !c.Enabled {
		return nil
	}
	var headers map[string]string
	if c.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.APIKey}
	}
	return advisory.NewHTTPAdvisor(c.Endpoint, headers)
}

// RunnerOptions builds pipeline options, connecting the cache backend.
func (c Config) RunnerOptions(ctx context.Context, logger *log.Logger) (pipeline.Options, error) {
	backend, err := c.Cache.OpenBackend(ctx)
	if err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s cache", c.Cache.Backend)
	}
	opts := pipeline.Options{
		Backend:         backend,
		Keyer:           c.Cache.Keyer(),
		TTL:             c.Cache.TTL.Duration,
		AdvisoryTimeout: c.Advisory.Timeout.Duration,
		Logger:          logger,
	}
	if adv := c.Advisory.Advisor(); adv != nil {
		opts.Advisor = adv
	}
	return opts, nil
}
