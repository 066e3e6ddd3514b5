package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
)

// Similarity gives every block of the same kind and heading level the same
// prominence baseline so that like content is styled alike downstream.
type Similarity struct{}

// Name implements Rule.
func (Similarity) Name() string { return NameSimilarity }

// Evaluate implements Rule.
func (Similarity) Evaluate(doc *content.Normalized) Output {
	out := newOutput(NameSimilarity)
	for _, b := range doc.Blocks {
		if w := Baseline(b); w != 1 {
			out.Weights[b.ID] = w
		}
	}
	return out
}

// Baseline returns the prominence baseline for a block's kind and level:
// headings 1 + 0.1 × (6 − level), quotes and callouts 1.1, everything else 1.
func Baseline(b content.Block) float64 {
	switch b.Kind {
	case content.KindHeading:
		return 1 + 0.1*float64(content.MaxHeadingLevel-b.Level)
	case content.KindQuote, content.KindCallout:
		return 1.1
	default:
		return 1
	}
}
