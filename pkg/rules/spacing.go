package rules

import (
	"math"

	"github.com/matzehuels/gestalt/pkg/content"
)

// Spacing holds the vertical gaps used when stacking regions and blocks.
type Spacing struct {
	// Gap separates regions on a page.
	Gap float64
	// Inner separates blocks inside one region.
	Inner float64
}

// SpacingFor returns the spacing for a document's resolved constraints.
func SpacingFor(doc *content.Normalized) Spacing {
	gap := content.RegionGap(doc.Constraints.MinSpacing, doc.Constraints.Density)
	return Spacing{Gap: gap, Inner: gap / 2}
}

// Padding returns the whitespace added above and below a block of height h
// with the given contrast boost. It shrinks so that the padded block never
// exceeds pageHeight.
func (s Spacing) Padding(boost, h, pageHeight float64) float64 {
	if boost <= 1 {
		return 0
	}
	pad := s.Gap * (boost - 1)
	return math.Max(0, math.Min(pad, (pageHeight-h)/2))
}

// Slot returns the vertical space a block occupies including its padding.
func (s Spacing) Slot(b content.Block, boost, pageHeight float64) float64 {
	return b.Metrics.Height + 2*s.Padding(boost, b.Metrics.Height, pageHeight)
}
