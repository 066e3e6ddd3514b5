// Package config loads gestalt configuration from a TOML file with
// GESTALT_* environment overrides.
//
// Example gestalt.toml:
//
//	[log]
//	level = "info"
//
//	[cache]
//	backend = "redis"
//	ttl = "12h"
//	redis_addr = "localhost:6379"
//
//	[advisory]
//	enabled = true
//	endpoint = "http://advisor.internal/v1/advise"
//	timeout = "2s"
//
//	[server]
//	addr = ":8080"
//
//	[telemetry]
//	otlp_endpoint = "localhost:4317"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gestalt/pkg/advisory"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GESTALT_"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// ValidBackends is the set of supported cache backends.
var ValidBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendRedis:  true,
	BackendMongo:  true,
	BackendNone:   true,
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the complete configuration.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Cache     CacheConfig     `toml:"cache"`
	Advisory  AdvisoryConfig  `toml:"advisory"`
	Server    ServerConfig    `toml:"server"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type CacheConfig struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	Prefix        string   `toml:"prefix"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisURL      string   `toml:"redis_url"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

type AdvisoryConfig struct {
	Enabled  bool     `toml:"enabled"`
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`

	// APIKey is only read from GESTALT_ADVISORY_API_KEY, never from the file.
	APIKey string `toml:"-"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
	MaxBodySize int64    `toml:"max_body_size"`
}

type TelemetryConfig struct {
	Enabled      bool   `toml:"enabled"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Cache: CacheConfig{
			Backend:       BackendMemory,
			TTL:           Duration{cache.DefaultTTL},
			RedisAddr:     "localhost:6379",
			MongoDatabase: cache.DefaultMongoDatabase,
		},
		Advisory: AdvisoryConfig{Timeout: Duration{advisory.DefaultTimeout}},
		Server:   ServerConfig{Addr: ":8080", MaxBodySize: 4 << 20},
		Telemetry: TelemetryConfig{
			ServiceName: "gestalt",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undec[0].String(), path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GESTALT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	var err error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = errors.Wrap(errors.ErrCodeInvalidConfig, perr, "%s%s", EnvPrefix, key)
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *Duration) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" && err == nil {
			if perr := dst.UnmarshalText([]byte(v)); perr != nil {
				err = errors.Wrap(errors.ErrCodeInvalidConfig, perr, "%s%s", EnvPrefix, key)
			}
		}
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("CACHE_BACKEND", &c.Cache.Backend)
	duration("CACHE_TTL", &c.Cache.TTL)
	str("CACHE_DIR", &c.Cache.Dir)
	str("CACHE_PREFIX", &c.Cache.Prefix)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("MONGO_URI", &c.Cache.MongoURI)
	str("MONGO_DATABASE", &c.Cache.MongoDatabase)
	boolean("ADVISORY_ENABLED", &c.Advisory.Enabled)
	str("ADVISORY_ENDPOINT", &c.Advisory.Endpoint)
	duration("ADVISORY_TIMEOUT", &c.Advisory.Timeout)
	str("ADVISORY_API_KEY", &c.Advisory.APIKey)
	str("SERVER_ADDR", &c.Server.Addr)
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	boolean("TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	str("OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	str("SERVICE_NAME", &c.Telemetry.ServiceName)
	return err
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	switch {
	case !ValidBackends[c.Cache.Backend]:
		return invalid("cache backend %q must be one of memory, file, redis, mongo, none", c.Cache.Backend)
	case c.Cache.TTL.Duration < 0:
		return invalid("cache ttl must not be negative")
	case c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "":
		return invalid("cache backend mongo requires mongo_uri")
	case c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" && c.Cache.RedisURL == "":
		return invalid("cache backend redis requires redis_addr or redis_url")
	case c.Advisory.Enabled && c.Advisory.Endpoint == "":
		return invalid("advisory is enabled but has no endpoint")
	case c.Advisory.Timeout.Duration < 0:
		return invalid("advisory timeout must not be negative")
	case c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "":
		return invalid("telemetry is enabled but has no otlp_endpoint")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String renders the configuration as TOML with secrets removed.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
