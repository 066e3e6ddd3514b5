package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/gestalt/pkg/advisory"
	"github.com/matzehuels/gestalt/pkg/cache"
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/observability"
	"github.com/matzehuels/gestalt/pkg/rules"
	"github.com/matzehuels/gestalt/pkg/validate"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func pkgOf(d content.Density, blocks ...content.RawBlock) content.Package {
	for i := range blocks {
		blocks[i].Sequence = i
	}
	return content.Package{
		SessionID:   "s-1",
		Blocks:      blocks,
		Intent:      content.DesignIntent{Purpose: content.PurposeReport, Goals: []string{"clarity", "brevity"}},
		Constraints: content.Constraints{MaxPages: 10, Density: d},
	}
}

func heading(id, text string) content.RawBlock {
	return content.RawBlock{ID: id, Kind: content.KindHeading, Level: 1, Text: text}
}

func para(id, text string) content.RawBlock {
	return content.RawBlock{ID: id, Kind: content.KindParagraph, Text: text}
}

func TestScenarioAHeadingWithParagraph(t *testing.T) {
	r := NewRunner(Options{})
	defer r.Close()

	res, err := r.Compose(context.Background(), pkgOf(content.DensityBalanced,
		heading("h1", "Introduction"),
		para("p1", "A short opening paragraph."),
	))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(res.Spec.Pages) != 1 || len(res.Spec.Pages[0].Regions) != 1 {
		t.Fatalf("got %d pages / %d regions, want 1/1", len(res.Spec.Pages), res.Spec.RegionCount())
	}
	blocks := res.Spec.Pages[0].Regions[0].Blocks
	if len(blocks) != 2 || blocks[0].BlockID != "h1" || blocks[1].BlockID != "p1" {
		t.Errorf("region blocks = %+v", blocks)
	}
	if res.CacheInfo.Hit {
		t.Error("first composition reported a cache hit")
	}
	if res.Spec.SourceFingerprint != res.Fingerprint {
		t.Error("spec fingerprint does not match result fingerprint")
	}
}

func TestScenarioBTightSpill(t *testing.T) {
	var blocks []content.RawBlock
	for i := range 10 {
		blocks = append(blocks, para(fmt.Sprintf("p%02d", i), words(280)))
	}
	r := NewRunner(Options{})
	defer r.Close()

	res, err := r.Compose(context.Background(), pkgOf(content.DensityTight, blocks...))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	plan := rules.Build(res.Doc)
	var total float64
	for _, b := range res.Doc.Blocks {
		total += plan.Weight(b)
	}
	want := int(math.Ceil(total/plan.PageBudget - 1e-9))
	if len(res.Spec.Pages) != want {
		t.Errorf("pages = %d, want ceil(%.1f / %.1f) = %d", len(res.Spec.Pages), total, plan.PageBudget, want)
	}
	if len(res.Spec.Pages) < 2 {
		t.Error("ten large paragraphs should spill over several pages")
	}
}

func TestScenarioDImage(t *testing.T) {
	img := func(h int) content.Package {
		p := pkgOf(content.DensityBalanced,
			para("p1", words(460)),
			content.RawBlock{ID: "fig", Kind: content.KindImage, ImageID: "img"},
		)
		p.Images = []content.ImageAsset{{ID: "img", URI: "s3://bucket/fig.png", Format: "png", WidthPx: 1000, HeightPx: h}}
		return p
	}
	r := NewRunner(Options{})
	defer r.Close()

	res, err := r.Compose(context.Background(), img(1000))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	pp, _, _ := res.Spec.Locate("p1")
	ip, _, _ := res.Spec.Locate("fig")
	if pp != 0 || ip != 1 {
		t.Errorf("paragraph on page %d, image on page %d; want 0 and 1", pp, ip)
	}

	_, err = r.Compose(context.Background(), img(2000))
	if !errors.Is(err, errors.ErrCodeOverflowUnrepairable) {
		t.Fatalf("err = %v, want OVERFLOW_UNREPAIRABLE", err)
	}
	if e, _ := errors.As(err); e.BlockID != "fig" {
		t.Errorf("error block = %q, want fig", e.BlockID)
	}
}

func TestScenarioEEmptyNotCached(t *testing.T) {
	backend := cache.NewMemoryCache()
	r := NewRunner(Options{Backend: backend})
	defer r.Close()

	for range 2 {
		res, err := r.Compose(context.Background(), pkgOf(content.DensityBalanced))
		if res != nil {
			t.Fatal("no layout should be produced for an empty document")
		}
		if !errors.Is(err, errors.ErrCodeValidation) || errors.GetKind(err) != string(validate.EmptyDocument) {
			t.Fatalf("err = %v, want EmptyDocument", err)
		}
	}
	if backend.Len() != 0 {
		t.Errorf("cache holds %d entries after failures", backend.Len())
	}
}

func TestNormalizationErrorNotCached(t *testing.T) {
	backend := cache.NewMemoryCache()
	r := NewRunner(Options{Backend: backend})
	defer r.Close()

	bad := pkgOf(content.DensityBalanced, content.RawBlock{ID: "x", Kind: "table", Text: "cells"})
	_, err := r.Compose(context.Background(), bad)
	if !errors.Is(err, errors.ErrCodeNormalization) {
		t.Fatalf("err = %v, want NORMALIZATION_ERROR", err)
	}
	if backend.Len() != 0 {
		t.Error("normalization failure was cached")
	}
}

func TestDeterminism(t *testing.T) {
	pkg := pkgOf(content.DensityAiry,
		heading("h1", "Quarterly review"),
		para("p1", words(120)),
		content.RawBlock{ID: "q1", Kind: content.KindQuote, Text: "Growth is a habit."},
		content.RawBlock{ID: "l1", Kind: content.KindList, Text: "one\ntwo\nthree"},
		heading("h2", "Outlook"),
		para("p2", words(300)),
	)
	var out [][]byte
	for range 2 {
		r := NewRunner(Options{Backend: cache.NewNullCache()})
		res, err := r.Compose(context.Background(), pkg)
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		data, err := layout.Marshal(res.Spec)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, data)
		r.Close()
	}
	if !bytes.Equal(out[0], out[1]) {
		t.Error("two compositions of the same input differ")
	}
}

func TestCacheHitReturnsIdenticalSpec(t *testing.T) {
	r := NewRunner(Options{})
	defer r.Close()
	pkg := pkgOf(content.DensityBalanced, heading("h", "Title"), para("p", words(50)))

	first, err := r.Compose(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Compose(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.Hit {
		t.Error("second composition should hit the cache")
	}
	a, _ := layout.Marshal(first.Spec)
	b, _ := layout.Marshal(second.Spec)
	if !bytes.Equal(a, b) {
		t.Error("cached layout differs from the computed one")
	}

	second.Spec.Pages[0].Title = "mutated"
	third, _ := r.Compose(context.Background(), pkg)
	if third.Spec.Pages[0].Title == "mutated" {
		t.Error("callers share cached state")
	}
}

func TestFingerprintStability(t *testing.T) {
	r := NewRunner(Options{})
	defer r.Close()
	fp := func(p content.Package) string {
		t.Helper()
		doc, err := r.Normalize(p)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		return Fingerprint(doc)
	}
	base := func() content.Package {
		return pkgOf(content.DensityBalanced, heading("h", "Title"), para("p", "Some body text."))
	}
	ref := fp(base())

	same := []struct {
		name   string
		mutate func(*content.Package)
	}{
		{"goal order", func(p *content.Package) { p.Intent.Goals = []string{"brevity", "clarity"} }},
		{"duplicate goal", func(p *content.Package) { p.Intent.Goals = append(p.Intent.Goals, "clarity") }},
		{"whitespace", func(p *content.Package) { p.Blocks[1].Text = "  Some   body\ttext.  " }},
		{"session", func(p *content.Package) { p.SessionID = "other" }},
		{"block order in input", func(p *content.Package) { p.Blocks[0], p.Blocks[1] = p.Blocks[1], p.Blocks[0] }},
	}
	for _, tt := range same {
		t.Run("same/"+tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			if got := fp(p); got != ref {
				t.Error("fingerprint changed")
			}
		})
	}

	differ := []struct {
		name   string
		mutate func(*content.Package)
	}{
		{"text", func(p *content.Package) { p.Blocks[1].Text = "Other body text." }},
		{"sequence", func(p *content.Package) { p.Blocks[1].Sequence = 5 }},
		{"max pages", func(p *content.Package) { p.Constraints.MaxPages = 3 }},
		{"density", func(p *content.Package) { p.Constraints.Density = content.DensityAiry }},
		{"audience", func(p *content.Package) { p.Intent.Audience = "engineers" }},
	}
	for _, tt := range differ {
		t.Run("differ/"+tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			if got := fp(p); got == ref {
				t.Error("fingerprint did not change")
			}
		})
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	composes atomic.Int32
	repaired atomic.Int32
}

func (h *countingHooks) OnRepair(_ context.Context, headings int) {
	h.repaired.Add(int32(headings))
}

func (h *countingHooks) OnComposeStart(ctx context.Context, _ string, _ int) context.Context {
	h.composes.Add(1)
	return ctx
}

func TestSingleFlight(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := NewRunner(Options{})
	defer r.Close()
	pkg := pkgOf(content.DensityBalanced, heading("h", "Title"), para("p", words(200)))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Compose(context.Background(), pkg)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
	}
	if n := hooks.composes.Load(); n != 1 {
		t.Errorf("composed %d times, want 1", n)
	}
}

func TestAdvisoryDoesNotTouchCache(t *testing.T) {
	adv := advisory.AdvisorFunc(func(context.Context, *advisory.Request) ([]advisory.Suggestion, error) {
		return []advisory.Suggestion{{Op: advisory.OpEmphasize, Targets: []string{"p"}, Value: 1.7}}, nil
	})
	r := NewRunner(Options{Advisor: adv})
	defer r.Close()
	pkg := pkgOf(content.DensityBalanced, heading("h", "Title"), para("p", "Body."))

	for i := range 2 {
		res, err := r.Compose(context.Background(), pkg)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Spec.Advisories) != 1 {
			t.Fatalf("run %d: advisories = %d, want 1", i, len(res.Spec.Advisories))
		}
		if res.Advisory.Applied != 1 {
			t.Errorf("run %d: report = %+v", i, res.Advisory)
		}
	}
}

func TestRepairReportsHeadings(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	blocks := []content.Block{
		{ID: "p1", Kind: content.KindParagraph, Metrics: content.Metrics{Width: 468, Height: 400, Weight: 400}},
		{ID: "h", Kind: content.KindHeading, Level: 1, Metrics: content.Metrics{Width: 468, Height: 30, Weight: 30}},
		{ID: "p2", Kind: content.KindParagraph, Metrics: content.Metrics{Width: 468, Height: 200, Weight: 200}},
		{ID: "p3", Kind: content.KindParagraph, Metrics: content.Metrics{Width: 468, Height: 400, Weight: 400}},
		{ID: "p4", Kind: content.KindParagraph, Metrics: content.Metrics{Width: 468, Height: 200, Weight: 200}},
	}
	for i := range blocks {
		blocks[i].Sequence = i
		blocks[i].Text = blocks[i].ID
	}
	doc := &content.Normalized{
		DocumentType: content.DocumentWord,
		Frame:        content.FrameFor(content.DocumentWord, geom.Margins{}),
		Constraints: content.Constraints{
			MaxPages:     content.DefaultMaxPages,
			MinSpacing:   content.DefaultMinSpacing,
			Density:      content.DensityBalanced,
			DocumentType: content.DocumentWord,
		},
		Blocks: blocks,
	}

	r := NewRunner(Options{})
	defer r.Close()
	if _, err := r.ComposeDocument(context.Background(), doc, "fp"); err != nil {
		t.Fatalf("ComposeDocument: %v", err)
	}
	if n := hooks.repaired.Load(); n != 1 {
		t.Errorf("repaired headings = %d, want 1", n)
	}
}
