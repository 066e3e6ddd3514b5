package advisory

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/observability"
	"github.com/matzehuels/gestalt/pkg/validate"
)

// DefaultTimeout bounds one advisor call.
const DefaultTimeout = 2 * time.Second

// Overlay applies advisor suggestions to validated layouts.
type Overlay struct {
	Advisor Advisor
	Timeout time.Duration
	Logger  *log.Logger
}

// NewOverlay creates an overlay. A zero timeout uses DefaultTimeout.
func NewOverlay(advisor Advisor, timeout time.Duration, logger *log.Logger) *Overlay {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Overlay{Advisor: advisor, Timeout: timeout, Logger: logger}
}

// Report summarizes one overlay run.
type Report struct {
	RequestID string
	Received  int
	Applied   int
	Dropped   int

	// Err is the advisor failure, if any, as an ADVISORY_TIMEOUT error. It
	// is informational: the layout is returned unmodified.
	Err error
}

// Apply returns spec refined by the advisor. spec itself is never modified;
// when nothing applies, or the advisor fails, the returned layout is spec.
func (o *Overlay) Apply(ctx context.Context, doc *content.Normalized, spec *layout.Specification) (*layout.Specification, Report) {
	rep := Report{RequestID: uuid.NewString()}
	if o == nil || o.Advisor == nil {
		return spec, rep
	}

	hooks := observability.Pipeline()
	ctx = hooks.OnAdvisoryStart(ctx, rep.RequestID)
	start := time.Now()
	out, rep := o.run(ctx, doc, spec, rep)
	hooks.OnAdvisoryComplete(ctx, rep.Applied, rep.Dropped, time.Since(start), rep.Err)
	return out, rep
}

func (o *Overlay) run(ctx context.Context, doc *content.Normalized, spec *layout.Specification, rep Report) (*layout.Specification, Report) {
	req := &Request{RequestID: rep.RequestID, Summary: Summarize(doc), Layout: spec}
	suggestions, err := o.advise(ctx, req)
	if err != nil {
		rep.Err = errors.Wrap(errors.ErrCodeAdvisoryTimeout, err, "advisory overlay skipped")
		o.Logger.Warn("advisory overlay skipped",
			"code", errors.ErrCodeAdvisoryTimeout, "request_id", rep.RequestID, "err", err)
		return spec, rep
	}

	rep.Received = len(suggestions)
	if len(suggestions) > MaxSuggestions {
		rep.Dropped += len(suggestions) - MaxSuggestions
		suggestions = suggestions[:MaxSuggestions]
	}

	out := spec
	for _, s := range suggestions {
		next, err := apply(out, s)
		if err != nil {
			o.Logger.Debug("dropping suggestion", "op", s.Op, "targets", s.Targets, "reason", err)
			rep.Dropped++
			continue
		}
		if f := validate.Check(doc, next); f != nil {
			o.Logger.Debug("dropping suggestion", "op", s.Op, "targets", s.Targets, "violation", f.Kind)
			rep.Dropped++
			continue
		}
		out = next
		rep.Applied++
	}

	o.Logger.Debug("advisory overlay done", "request_id", rep.RequestID,
		"received", rep.Received, "applied", rep.Applied, "dropped", rep.Dropped)
	return out, rep
}

// advise calls the advisor under the overlay timeout. The call runs in its
// own goroutine so an advisor that ignores ctx still cannot hold the
// request past the deadline.
func (o *Overlay) advise(ctx context.Context, req *Request) ([]Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	type result struct {
		s   []Suggestion
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := o.Advisor.Advise(ctx, req)
		ch <- result{s, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("advisor did not answer within %s: %w", o.Timeout, ctx.Err())
	case r := <-ch:
		return r.s, r.err
	}
}

// apply returns a modified copy of spec.
func apply(spec *layout.Specification, s Suggestion) (*layout.Specification, error) {
	switch s.Op {
	case OpEmphasize:
		return emphasize(spec, s)
	case OpMergeRegions:
		return mergeRegions(spec, s)
	default:
		return nil, fmt.Errorf("unsupported op %q", s.Op)
	}
}

func emphasize(spec *layout.Specification, s Suggestion) (*layout.Specification, error) {
	if len(s.Targets) == 0 {
		return nil, fmt.Errorf("no targets")
	}
	if math.IsNaN(s.Value) || s.Value <= 0 {
		return nil, fmt.Errorf("invalid emphasis %v", s.Value)
	}
	value := math.Max(MinEmphasis, math.Min(MaxEmphasis, s.Value))

	out := spec.Clone()
	for _, id := range s.Targets {
		pi, ri, ok := out.Locate(id)
		if !ok {
			return nil, fmt.Errorf("unknown block %q", id)
		}
		blocks := out.Pages[pi].Regions[ri].Blocks
		for i := range blocks {
			if blocks[i].BlockID == id {
				blocks[i].Emphasis = value
			}
		}
	}
	out.Advisories = append(out.Advisories, record(s, value))
	return out, nil
}

// mergeRegions joins two consecutive regions of one page into the first.
// The merged region spans from the top of the first to the bottom of the
// second; block positions are unchanged.
func mergeRegions(spec *layout.Specification, s Suggestion) (*layout.Specification, error) {
	if len(s.Targets) != 2 {
		return nil, fmt.Errorf("merge_regions needs 2 targets, got %d", len(s.Targets))
	}
	pa, ra, okA := spec.FindRegion(s.Targets[0])
	pb, rb, okB := spec.FindRegion(s.Targets[1])
	switch {
	case !okA:
		return nil, fmt.Errorf("unknown region %q", s.Targets[0])
	case !okB:
		return nil, fmt.Errorf("unknown region %q", s.Targets[1])
	case pa != pb:
		return nil, fmt.Errorf("regions are on different pages")
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	if rb != ra+1 {
		return nil, fmt.Errorf("regions are not adjacent")
	}

	out := spec.Clone()
	page := &out.Pages[pa]
	first, second := page.Regions[ra], page.Regions[rb]

	merged := first
	merged.Size.Height = second.Rect().Bottom() - first.Origin.Y
	merged.Capacity = merged.Size.Height
	merged.Blocks = append(append([]layout.Placement{}, first.Blocks...), second.Blocks...)
	for i := range merged.Blocks {
		merged.Blocks[i].Tags.ProximityGroup = merged.ID
	}
	if geom.LessOrEqual(merged.Size.Height, 0) {
		return nil, fmt.Errorf("merged region has no height")
	}

	page.Regions = append(page.Regions[:ra], append([]layout.Region{merged}, page.Regions[rb+1:]...)...)
	out.Advisories = append(out.Advisories, record(s, 0))
	return out, nil
}

func record(s Suggestion, value float64) layout.Advisory {
	return layout.Advisory{
		Op:      string(s.Op),
		Targets: append([]string(nil), s.Targets...),
		Value:   value,
		Reason:  s.Reason,
	}
}
