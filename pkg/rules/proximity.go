package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
)

// Proximity binds a block to its immediate predecessor when their sequences
// are contiguous and their kinds belong together, unless the pair alone
// would not fit on an empty page.
type Proximity struct{}

// Name implements Rule.
func (Proximity) Name() string { return NameProximity }

// Evaluate implements Rule.
func (Proximity) Evaluate(doc *content.Normalized) Output {
	out := newOutput(NameProximity)
	sp := SpacingFor(doc)
	capacity := doc.Frame.Content().Size.Height

	for i := 1; i < len(doc.Blocks); i++ {
		prev, cur := doc.Blocks[i-1], doc.Blocks[i]
		if cur.Sequence != prev.Sequence+1 || !Compatible(prev, cur) {
			continue
		}
		pair := prev.Metrics.Height + sp.Inner + cur.Metrics.Height
		if !geom.LessOrEqual(doc.Frame.SnapHeight(pair), capacity) {
			out.Bindings[cur.ID] = Break
			continue
		}
		out.Bindings[cur.ID] = Bind
	}
	return out
}

// Compatible reports whether next naturally follows prev in one region.
func Compatible(prev, next content.Block) bool {
	switch prev.Kind {
	case content.KindHeading:
		return next.Kind != content.KindHeading || next.Level > prev.Level
	case content.KindParagraph:
		switch next.Kind {
		case content.KindList, content.KindQuote, content.KindCallout, content.KindImage:
			return true
		}
	case content.KindList:
		return next.Kind == content.KindParagraph
	case content.KindImage:
		return next.Kind == content.KindParagraph
	}
	return false
}
