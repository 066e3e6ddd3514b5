package validate

import (
	"fmt"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
)

type check func(doc *content.Normalized, spec *layout.Specification) *Failure

// checks in evaluation order.
var checks = []check{
	checkPageCount,
	checkOverflow,
	checkOrphans,
	checkEmpty,
	checkSpacing,
	checkOrder,
	checkFields,
}

// Check runs every check against spec without repairing anything and
// returns the first failure, or nil when spec is valid.
func Check(doc *content.Normalized, spec *layout.Specification) *Failure {
	for _, c := range checks {
		if f := c(doc, spec); f != nil {
			return f
		}
	}
	return nil
}

func checkPageCount(doc *content.Normalized, spec *layout.Specification) *Failure {
	limit := doc.Constraints.MaxPages
	if limit <= 0 || len(spec.Pages) <= limit {
		return nil
	}
	f := &Failure{
		Kind:       PageCountExceeded,
		Message:    fmt.Sprintf("%d pages exceed the limit of %d", len(spec.Pages), limit),
		Page:       limit,
		Constraint: fmt.Sprintf("max_pages_or_slides=%d", limit),
	}
	if p := spec.Pages[limit]; len(p.Regions) > 0 && len(p.Regions[0].Blocks) > 0 {
		f.Region = p.Regions[0].ID
		f.BlockID = p.Regions[0].Blocks[0].BlockID
	}
	return f
}

func checkOverflow(doc *content.Normalized, spec *layout.Specification) *Failure {
	box := doc.Frame.Content()
	for pi, p := range spec.Pages {
		for _, r := range p.Regions {
			fail := func(blockID, constraint, format string, args ...any) *Failure {
				return &Failure{
					Kind:       RegionOverflow,
					Message:    fmt.Sprintf(format, args...),
					Page:       pi,
					Region:     r.ID,
					BlockID:    blockID,
					Constraint: constraint,
				}
			}
			if h := r.ContentHeight(); !geom.LessOrEqual(h, r.Capacity) {
				return fail(lastBlock(r), fmt.Sprintf("capacity=%.1f", r.Capacity),
					"region holds %.1fpt of content but has %.1fpt", h, r.Capacity)
			}
			if !geom.LessOrEqual(r.Capacity, r.Size.Height) {
				return fail("", fmt.Sprintf("height=%.1f", r.Size.Height),
					"region capacity %.1fpt exceeds its height %.1fpt", r.Capacity, r.Size.Height)
			}
			if !box.Contains(r.Rect()) {
				return fail(lastBlock(r), fmt.Sprintf("content_area=%.1fx%.1f", box.Size.Width, box.Size.Height),
					"region extends outside the content area")
			}
			for _, b := range r.Blocks {
				if !r.Rect().Contains(b.Rect) {
					return fail(b.BlockID, "region="+r.ID, "block extends outside its region")
				}
			}
		}
	}
	return nil
}

// checkOrphans flags headings that end a page while the document continues
// on the next one. Tight layouts accept orphans.
func checkOrphans(doc *content.Normalized, spec *layout.Specification) *Failure {
	if doc.Density() == content.DensityTight {
		return nil
	}
	var f *Failure
	for pi := 0; pi+1 < len(spec.Pages); pi++ {
		p := spec.Pages[pi]
		if len(p.Regions) == 0 || len(spec.Pages[pi+1].Regions) == 0 {
			continue
		}
		r := p.Regions[len(p.Regions)-1]
		if len(r.Blocks) == 0 {
			continue
		}
		last := r.Blocks[len(r.Blocks)-1]
		if last.Kind != string(content.KindHeading) {
			continue
		}
		if f == nil {
			f = &Failure{
				Kind:       OrphanHeading,
				Message:    "heading is the last block on its page",
				Page:       pi,
				Region:     r.ID,
				BlockID:    last.BlockID,
				Constraint: "density=" + string(doc.Density()),
			}
		}
		f.Orphans = append(f.Orphans, last.BlockID)
	}
	return f
}

func checkEmpty(_ *content.Normalized, spec *layout.Specification) *Failure {
	if spec.BlockCount() > 0 {
		return nil
	}
	return &Failure{Kind: EmptyDocument, Message: "document has no content blocks", Constraint: "blocks>=1"}
}

func checkSpacing(doc *content.Normalized, spec *layout.Specification) *Failure {
	minGap := doc.Constraints.MinSpacing
	for pi, p := range spec.Pages {
		for ri := 1; ri < len(p.Regions); ri++ {
			prev, r := p.Regions[ri-1], p.Regions[ri]
			gap := r.Origin.Y - prev.Rect().Bottom()
			if !geom.LessOrEqual(minGap, gap) {
				f := &Failure{
					Kind:       SpacingViolation,
					Message:    fmt.Sprintf("regions are %.1fpt apart, minimum is %.1fpt", gap, minGap),
					Page:       pi,
					Region:     r.ID,
					Constraint: fmt.Sprintf("min_spacing=%g", minGap),
				}
				if len(r.Blocks) > 0 {
					f.BlockID = r.Blocks[0].BlockID
				}
				return f
			}
		}
	}
	return nil
}

func checkOrder(_ *content.Normalized, spec *layout.Specification) *Failure {
	last := -1
	for pi, p := range spec.Pages {
		for _, r := range p.Regions {
			for _, b := range r.Blocks {
				if b.Sequence <= last {
					return &Failure{
						Kind:       OrderViolation,
						Message:    fmt.Sprintf("sequence %d follows %d", b.Sequence, last),
						Page:       pi,
						Region:     r.ID,
						BlockID:    b.BlockID,
						Constraint: fmt.Sprintf("sequence>%d", last),
					}
				}
				last = b.Sequence
			}
		}
	}
	return nil
}

func checkFields(_ *content.Normalized, spec *layout.Specification) *Failure {
	missing := func(field string) *Failure {
		return &Failure{Kind: MissingField, Message: "missing " + field, Constraint: "required=" + field}
	}
	switch {
	case spec.SchemaVersion == "":
		return missing("schema_version")
	case spec.SourceFingerprint == "":
		return missing("source_fingerprint")
	case spec.DocumentType == "":
		return missing("document_type")
	}
	for pi, p := range spec.Pages {
		for _, r := range p.Regions {
			if r.ID == "" {
				f := missing("region id")
				f.Page = pi
				return f
			}
			for _, b := range r.Blocks {
				if b.BlockID == "" {
					f := missing("block id")
					f.Page, f.Region = pi, r.ID
					return f
				}
			}
		}
	}
	return nil
}

func lastBlock(r layout.Region) string {
	if len(r.Blocks) == 0 {
		return ""
	}
	return r.Blocks[len(r.Blocks)-1].BlockID
}
