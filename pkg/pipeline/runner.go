package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/advisory"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/compose"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/observability"
	"github.com/matzehuels/gestalt/pkg/rules"
	"github.com/matzehuels/gestalt/pkg/validate"
)

// Runner owns the state shared across compositions: the result cache with
// its single-flight group, and the optional advisory overlay. It is safe for
// concurrent use; create one per process and Close it on shutdown.
type Runner struct {
	Logger *log.Logger

	normalizer *content.Normalizer
	composer   *compose.Composer
	validator  *validate.Validator
	results    *cache.Results
	overlay    *advisory.Overlay
}

// NewRunner creates a runner from opts.
func NewRunner(opts Options) *Runner {
	opts.setDefaults()
	composer := compose.New(opts.Logger)
	r := &Runner{
		Logger:     opts.Logger,
		normalizer: content.NewNormalizer(opts.Measure),
		composer:   composer,
		validator:  validate.New(composer, opts.Logger),
		results: cache.NewResults(opts.Backend, cache.ResultsOptions{
			Keyer:  opts.Keyer,
			TTL:    opts.TTL,
			Logger: opts.Logger,
		}),
	}
	if opts.Advisor != nil {
		r.overlay = advisory.NewOverlay(opts.Advisor, opts.AdvisoryTimeout, opts.Logger)
	}
	return r
}

// Compose turns a content package into a validated layout specification.
//
// Normalization, validation and overflow failures are returned as
// structured errors and nothing is cached. The caller may abandon the
// request through ctx; a composition already in flight still completes and
// is cached for the next request.
func (r *Runner) Compose(ctx context.Context, pkg content.Package) (*Result, error) {
	hooks := observability.Pipeline()

	start := time.Now()
	doc, err := r.normalizer.Normalize(pkg)
	hooks.OnNormalize(ctx, len(pkg.Blocks), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	result := &Result{Doc: doc, Fingerprint: Fingerprint(doc)}
	result.Stats.NormalizeTime = time.Since(start)

	start = time.Now()
	entry, hit, err := r.results.GetOrCompute(ctx, result.Fingerprint, func(ctx context.Context) ([]byte, error) {
		spec, err := r.ComposeDocument(ctx, doc, result.Fingerprint)
		if err != nil {
			return nil, err
		}
		return layout.Marshal(spec)
	})
	if err != nil {
		return nil, err
	}
	spec, err := layout.Unmarshal(entry.Spec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode cached layout")
	}
	result.Stats.ComposeTime = time.Since(start)
	result.CacheInfo = CacheInfo{Hit: hit, CreatedAt: entry.CreatedAt, ExpiresAt: entry.ExpiresAt}

	r.Logger.Info("composed layout",
		"fingerprint", short(result.Fingerprint),
		"pages", len(spec.Pages),
		"quality", spec.Quality.Score,
		"cache_hit", hit,
		"duration", result.Stats.ComposeTime)

	if r.overlay != nil {
		start = time.Now()
		spec, result.Advisory = r.overlay.Apply(ctx, doc, spec)
		result.Stats.AdvisoryTime = time.Since(start)
	}

	result.Spec = spec
	result.Stats.Blocks = spec.BlockCount()
	result.Stats.Pages = len(spec.Pages)
	result.Stats.Regions = spec.RegionCount()
	return result, nil
}

// ComposeDocument runs rules, composition and validation for an already
// normalized document, bypassing the cache.
func (r *Runner) ComposeDocument(ctx context.Context, doc *content.Normalized, fingerprint string) (spec *layout.Specification, err error) {
	hooks := observability.Pipeline()
	start := time.Now()
	ctx = hooks.OnComposeStart(ctx, fingerprint, len(doc.Blocks))
	defer func() {
		pages := 0
		if spec != nil {
			pages = len(spec.Pages)
		}
		hooks.OnComposeComplete(ctx, pages, time.Since(start), err)
	}()

	in := compose.Input{Doc: doc, Plan: rules.Build(doc), Fingerprint: fingerprint}
	cand, err := r.composer.Compose(in)
	if err != nil {
		return nil, err
	}
	spec, repaired, err := r.validator.ValidateWithRepairs(in, cand)
	if err != nil {
		return nil, err
	}
	if repaired > 0 {
		hooks.OnRepair(ctx, repaired)
	}
	return spec, nil
}

// Normalize exposes the normalizer for callers that only need measured
// blocks, such as the inspect command.
func (r *Runner) Normalize(pkg content.Package) (*content.Normalized, error) {
	return r.normalizer.Normalize(pkg)
}

// Invalidate drops the cached layout for fingerprint.
func (r *Runner) Invalidate(ctx context.Context, fingerprint string) error {
	return r.results.Invalidate(ctx, fingerprint)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	return r.results.Close()
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
