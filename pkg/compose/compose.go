// Package compose implements the layout composer.
//
// The composer is a greedy, single-pass, deterministic algorithm. It walks
// the normalized blocks in sequence order while tracking the current page,
// the current region and their remaining capacity:
//
//   - a block the plan binds to its predecessor is appended to the current
//     region when it fits physically and the page stays within its weight
//     budget;
//   - otherwise the region is closed and a new one opened, on a new page only
//     when the current page is at its weight budget, physically full, or a
//     break is forced; this avoids spurious single-block pages;
//   - blocks are never split. A block that does not fit on an empty page
//     fails the composition with OVERFLOW_UNREPAIRABLE.
//
// Geometry is computed during the walk so that capacity checks and the final
// placement agree: word documents stack full-width regions; presentations
// snap region positions and heights to the baseline grid and image widths to
// the column grid.
package compose

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/errors"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
	"github.com/matzehuels/gestalt/pkg/rules"
)

// Hints adjust a composition. The validator uses them for its repair pass.
type Hints struct {
	// Pull lets a block ignore the page weight budget so that it stays on
	// its predecessor's page when it fits physically.
	Pull map[string]bool

	// BreakBefore forces a new page before a block.
	BreakBefore map[string]bool
}

// IsZero reports whether no hint is set.
func (h Hints) IsZero() bool { return len(h.Pull) == 0 && len(h.BreakBefore) == 0 }

// Input is everything one composition needs.
type Input struct {
	Doc         *content.Normalized
	Plan        *rules.Plan
	Hints       Hints
	Fingerprint string
}

// Composer turns a normalized document and a rule plan into a candidate
// specification.
type Composer struct {
	Logger *log.Logger
}

// New returns a Composer that logs to logger. A nil logger discards output.
func New(logger *log.Logger) *Composer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Composer{Logger: logger}
}

// =============================================================================
// Composition State
// =============================================================================

type slot struct {
	block  content.Block
	offset float64 // from region top to the padded slot
	pad    float64
	height float64 // padded height
}

type region struct {
	top   float64 // offset from the content top
	raw   float64 // unsnapped stacked height
	slots []slot
}

type page struct {
	regions []*region
	weight  float64
	blocks  int
}

func (p *page) last() *region {
	if len(p.regions) == 0 {
		return nil
	}
	return p.regions[len(p.regions)-1]
}

type state struct {
	frame    geom.Frame
	spacing  rules.Spacing
	capacity float64
	pages    []*page
}

func (s *state) current() *page { return s.pages[len(s.pages)-1] }

func (s *state) bottom(r *region) float64 {
	return r.top + s.frame.SnapHeight(r.raw)
}

// fitsRegion reports whether a slot of height h can extend region r.
func (s *state) fitsRegion(r *region, h float64) bool {
	raw := r.raw + s.spacing.Inner + h
	return geom.LessOrEqual(r.top+s.frame.SnapHeight(raw), s.capacity)
}

// nextTop returns where a new region would start on p.
func (s *state) nextTop(p *page) float64 {
	last := p.last()
	if last == nil {
		return 0
	}
	return s.frame.SnapHeight(s.bottom(last) + s.spacing.Gap)
}

func (s *state) fitsPage(p *page, h float64) bool {
	return geom.LessOrEqual(s.nextTop(p)+s.frame.SnapHeight(h), s.capacity)
}

// =============================================================================
// Compose
// =============================================================================

// Compose runs the greedy composition and returns an unvalidated candidate.
// An empty document yields a candidate with no pages.
func (c *Composer) Compose(in Input) (*layout.Specification, error) {
	doc, plan := in.Doc, in.Plan
	if plan == nil {
		plan = rules.Resolve(nil)
	}

	st := &state{
		frame:    doc.Frame,
		spacing:  rules.SpacingFor(doc),
		capacity: doc.Frame.Content().Size.Height,
	}
	budget := plan.PageBudget
	slideLimit := doc.DocumentType == content.DocumentPresentation

	for _, b := range doc.Blocks {
		h := b.Metrics.Height
		if !geom.LessOrEqual(st.frame.SnapHeight(h), st.capacity) {
			return nil, errors.New(errors.ErrCodeOverflowUnrepairable,
				"block needs %.1fpt but a page holds %.1fpt", h, st.capacity).
				WithBlock(b.ID).
				WithRule("capacity").
				WithConstraint("content_height=%.1f", st.capacity)
		}
		pad := st.spacing.Padding(plan.BoostOf(b.ID), h, st.capacity)
		if !geom.LessOrEqual(st.frame.SnapHeight(h+2*pad), st.capacity) {
			pad = 0
		}
		sl := slot{block: b, pad: pad, height: h + 2*pad}
		w := plan.Weight(b)

		if len(st.pages) == 0 {
			st.pages = append(st.pages, &page{})
		}
		cur := st.current()

		forced := plan.PageBreaks[b.ID] || in.Hints.BreakBefore[b.ID] ||
			(slideLimit && cur.blocks >= content.MaxBlocksPerSlide)
		withinBudget := in.Hints.Pull[b.ID] || budget <= 0 || geom.LessOrEqual(cur.weight+w, budget)

		if r := cur.last(); r != nil && !forced && plan.Bound[b.ID] && withinBudget && st.fitsRegion(r, sl.height) {
			sl.offset = r.raw + st.spacing.Inner
			r.raw += st.spacing.Inner + sl.height
			r.slots = append(r.slots, sl)
			cur.weight += w
			cur.blocks++
			continue
		}

		if len(cur.regions) > 0 && (forced || !withinBudget || !st.fitsPage(cur, sl.height)) {
			c.Logger.Debug("page break", "block", b.ID, "page", len(st.pages),
				"forced", forced, "budget", !withinBudget)
			cur = &page{}
			st.pages = append(st.pages, cur)
		}

		cur.regions = append(cur.regions, &region{
			top:   st.nextTop(cur),
			raw:   sl.height,
			slots: []slot{sl},
		})
		cur.weight += w
		cur.blocks++
	}

	spec := c.emit(doc, plan, st)
	spec.SourceFingerprint = in.Fingerprint
	c.Logger.Debug("composed", "pages", len(spec.Pages), "regions", spec.RegionCount(), "blocks", spec.BlockCount())
	return spec, nil
}

// =============================================================================
// Emission
// =============================================================================

func (c *Composer) emit(doc *content.Normalized, plan *rules.Plan, st *state) *layout.Specification {
	spec := &layout.Specification{
		SchemaVersion: layout.SchemaVersion,
		DocumentType:  string(doc.DocumentType),
		PageSize:      doc.Frame.Page,
		Margins:       doc.Frame.Margins,
		Pages:         make([]layout.Page, 0, len(st.pages)),
	}

	place := placerFor(doc.DocumentType, doc.Frame)
	box := doc.Frame.Content()
	padded := map[string]bool{}

	for pi, p := range st.pages {
		ordinal := 0
		pg := layout.Page{
			Index:   pi,
			Kind:    pageKind(doc.DocumentType),
			Weight:  p.weight,
			Regions: make([]layout.Region, 0, len(p.regions)),
		}
		for ri, r := range p.regions {
			height := st.frame.SnapHeight(r.raw)
			reg := layout.Region{
				ID:       fmt.Sprintf("p%03d-r%02d", pi+1, ri+1),
				Origin:   geom.Point{X: box.Origin.X, Y: box.Origin.Y + r.top},
				Size:     geom.Size{Width: box.Size.Width, Height: height},
				Capacity: height,
				Blocks:   make([]layout.Placement, 0, len(r.slots)),
			}
			for _, s := range r.slots {
				b := s.block
				ordinal++
				rect := place(b, reg.Origin.Y+s.offset+s.pad)
				pl := layout.Placement{
					BlockID:         b.ID,
					Sequence:        b.Sequence,
					Kind:            string(b.Kind),
					Level:           b.Level,
					Rect:            rect,
					Grid:            gridOf(doc.Frame, rect, ordinal),
					EstimatedHeight: rect.Size.Height,
					FontSize:        b.Metrics.FontSize,
					Emphasis:        plan.EmphasisOf(b.ID),
					Styling:         styleOf(doc.DocumentType, b),
					Tags:            tagsOf(b, reg.ID),
				}
				if b.Image != nil {
					pl.ImageURI = b.Image.URI
				}
				if s.pad > 0 {
					padded[b.ID] = true
				}
				reg.Blocks = append(reg.Blocks, pl)
			}
			pg.Regions = append(pg.Regions, reg)
		}
		pg.Title = pageTitle(doc.DocumentType, p)
		pg.Template = pageTemplate(doc.DocumentType, pi, p)
		spec.Pages = append(spec.Pages, pg)
	}

	spec.Diagnostics = diagnose(doc, plan, spec, padded)
	spec.Quality = Score(spec.Diagnostics)
	spec.Warnings = warnings(spec.Diagnostics)
	return spec
}

func pageKind(dt content.DocumentType) layout.PageKind {
	if dt == content.DocumentPresentation {
		return layout.PageKindSlide
	}
	return layout.PageKindPage
}
