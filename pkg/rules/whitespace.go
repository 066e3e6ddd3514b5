package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
)

// Whitespace balances content across pages. It estimates the page count a
// plain next-fit stacking would need, clamps it to the page limit, and
// suggests a per-page weight budget of total weight / target × slack.
//
// The budget never drops below the heaviest page of that stacking, so a
// composition that follows it needs no more pages than the stacking did.
type Whitespace struct{}

// Name implements Rule.
func (Whitespace) Name() string { return NameWhitespace }

// Evaluate implements Rule.
func (Whitespace) Evaluate(doc *content.Normalized) Output {
	out := newOutput(NameWhitespace)
	if len(doc.Blocks) == 0 {
		return out
	}

	pages := Stack(doc)
	target := min(max(len(pages), 1), max(doc.Constraints.MaxPages, 1))

	var total, heaviest float64
	for _, w := range pages {
		total += w
		heaviest = max(heaviest, w)
	}

	out.TargetPages = target
	out.PageBudget = max(total/float64(target)*Slack(doc.Density()), heaviest)
	return out
}

// Slack returns the budget inflation for a density.
func Slack(d content.Density) float64 {
	switch d {
	case content.DensityTight:
		return 1.0
	case content.DensityAiry:
		return 1.35
	default:
		return 1.15
	}
}

// EffectiveWeight returns a block's weight after the similarity baseline
// and contrast boost.
func EffectiveWeight(b content.Block, d content.Density) float64 {
	return b.Metrics.Weight * Baseline(b) * Boost(b.Kind, d)
}

// PhysicalPages returns the number of pages a next-fit stacking of every
// block as its own region needs. Blocks taller than a page count as one page.
func PhysicalPages(doc *content.Normalized) int {
	return len(Stack(doc))
}

// Stack runs the next-fit stacking behind [PhysicalPages] and returns the
// effective weight each page receives.
func Stack(doc *content.Normalized) []float64 {
	f := doc.Frame
	sp := SpacingFor(doc)
	capacity := f.Content().Size.Height

	var pages []float64
	used := -1.0
	for _, b := range doc.Blocks {
		h := f.SnapHeight(sp.Slot(b, Boost(b.Kind, doc.Density()), capacity))
		w := EffectiveWeight(b, doc.Density())
		if used < 0 {
			pages = append(pages, w)
			used = h
			continue
		}
		top := f.SnapHeight(used + sp.Gap)
		if !geom.LessOrEqual(top+h, capacity) {
			pages = append(pages, w)
			used = h
			continue
		}
		pages[len(pages)-1] += w
		used = top + h
	}
	return pages
}
