package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
)

// Hierarchy lets heading levels bound grouping. A heading only joins the
// preceding region when it directly follows its parent heading; every other
// heading opens a new region, so no block is grouped under a senior heading
// that is not its nearest ancestor.
//
// For presentations, headings of level 0 or 1 start a new slide.
type Hierarchy struct{}

// Name implements Rule.
func (Hierarchy) Name() string { return NameHierarchy }

// Evaluate implements Rule.
func (Hierarchy) Evaluate(doc *content.Normalized) Output {
	out := newOutput(NameHierarchy)
	for i, b := range doc.Blocks {
		if i == 0 || !b.IsHeading() {
			continue
		}
		prev := doc.Blocks[i-1]
		if doc.DocumentType == content.DocumentPresentation && b.Level <= 1 {
			out.PageBreaks[b.ID] = true
			out.Bindings[b.ID] = Break
			continue
		}
		if !(prev.IsHeading() && prev.Level < b.Level) {
			out.Bindings[b.ID] = Break
		}
	}
	return out
}
