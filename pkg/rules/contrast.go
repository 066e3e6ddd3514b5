package rules

import (
	"github.com/matzehuels/gestalt/pkg/content"
)

// Contrast boosts callouts and quotes. The boost grows with the requested
// density: airy documents set emphasised content apart more than tight ones.
type Contrast struct{}

// Name implements Rule.
func (Contrast) Name() string { return NameContrast }

// Evaluate implements Rule.
func (Contrast) Evaluate(doc *content.Normalized) Output {
	out := newOutput(NameContrast)
	for _, b := range doc.Blocks {
		if boost := Boost(b.Kind, doc.Density()); boost != 1 {
			out.Boosts[b.ID] = boost
		}
	}
	return out
}

// Boost returns the contrast boost for a block kind at a density.
func Boost(k content.Kind, d content.Density) float64 {
	if k != content.KindCallout && k != content.KindQuote {
		return 1
	}
	switch d {
	case content.DensityAiry:
		return 1.5
	case content.DensityTight:
		return 1.1
	default:
		return 1.25
	}
}
