// Package pipeline wires the layout stages into the single compose operation
// used by the CLI and the HTTP server.
//
// # Architecture
//
// A composition runs these stages in order:
//
//  1. Normalize: validate the content package and measure every block
//  2. Fingerprint: hash the normalized content, intent and constraints
//  3. Compose: evaluate the principle rules, place blocks, validate and
//     repair, all under the result cache's single-flight guard
//  4. Advise: optionally refine the cached layout through the advisory
//     overlay
//
// Stages 1 to 3 are deterministic; identical inputs always produce
// byte-identical specifications. Stage 4 runs after the cache commit and
// never affects what is cached.
//
// # Usage
//
//	runner := pipeline.NewRunner(pipeline.Options{Logger: logger})
//	defer runner.Close()
//
//	pkg, err := content.ReadPackageFile("deck.yaml")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Compose(ctx, pkg)
//	if err != nil {
//	    return err
//	}
//	data, _ := layout.Marshal(result.Spec)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/advisory"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/layout"
)

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a Runner. The zero value is usable: an in-memory cache
// with the default TTL and no advisory overlay.
type Options struct {
	// Backend stores layouts. Nil selects a process-scoped MemoryCache.
	Backend cache.Cache

	// Keyer maps fingerprints to backend keys. Nil selects the default.
	Keyer cache.Keyer

	// TTL is the cache entry lifetime. Zero selects cache.DefaultTTL.
	TTL time.Duration

	// Advisor enables the advisory overlay when set.
	Advisor advisory.Advisor

	// AdvisoryTimeout bounds each advisor call. Zero selects
	// advisory.DefaultTimeout.
	AdvisoryTimeout time.Duration

	// Measure overrides text and image measurement. The zero value selects
	// content.DefaultMeasureConfig.
	Measure content.MeasureConfig

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Measure == (content.MeasureConfig{}) {
		o.Measure = content.DefaultMeasureConfig()
	}
	if o.TTL <= 0 {
		o.TTL = cache.DefaultTTL
	}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of one composition.
type Result struct {
	// Spec is the layout returned to the caller. It belongs to the caller;
	// cached data is never shared.
	Spec *layout.Specification

	// Fingerprint identifies the normalized input.
	Fingerprint string

	// Doc is the normalized content the layout was built from.
	Doc *content.Normalized

	Stats     Stats
	CacheInfo CacheInfo

	// Advisory reports the overlay run. Its zero value means no advisor is
	// configured.
	Advisory advisory.Report
}

// Stats contains composition statistics.
type Stats struct {
	Blocks        int
	Pages         int
	Regions       int
	NormalizeTime time.Duration
	ComposeTime   time.Duration
	AdvisoryTime  time.Duration
}

// CacheInfo describes the cache entry behind a result.
type CacheInfo struct {
	Hit       bool      `json:"hit"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
