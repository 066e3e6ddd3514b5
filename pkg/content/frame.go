package content

import (
	"github.com/matzehuels/gestalt/pkg/geom"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxPages bounds documents that do not set max_pages_or_slides.
	DefaultMaxPages = 50

	// DefaultMinSpacing is the minimum gap between regions, in points.
	DefaultMinSpacing = 12.0

	// MaxBlocksPerSlide caps the number of blocks on one presentation slide.
	MaxBlocksPerSlide = 5
)

// Page geometry per document type.
var (
	// LetterPage is a US Letter page (8.5 × 11 in).
	LetterPage = geom.Size{Width: 612, Height: 792}

	// SlidePage is a 4:3 slide (10 × 7.5 in).
	SlidePage = geom.Size{Width: 720, Height: 540}
)

// DefaultMargins returns the default margins for a document type.
func DefaultMargins(dt DocumentType) geom.Margins {
	if dt == DocumentPresentation {
		return geom.Uniform(0.75 * geom.PointsPerInch)
	}
	return geom.Uniform(geom.PointsPerInch)
}

// FrameFor returns the page frame for a document type and resolved margins.
// Presentations use a 12-column grid with a 0.2 in gutter and a 0.25 in
// baseline grid; word documents use a single full-width column.
func FrameFor(dt DocumentType, margins geom.Margins) geom.Frame {
	if margins.IsZero() {
		margins = DefaultMargins(dt)
	}
	if dt == DocumentPresentation {
		return geom.Frame{
			Page:     SlidePage,
			Margins:  margins,
			Columns:  12,
			Gutter:   0.2 * geom.PointsPerInch,
			Baseline: 0.25 * geom.PointsPerInch,
		}
	}
	return geom.Frame{Page: LetterPage, Margins: margins}
}

// RegionGap returns the vertical gap between regions for the given spacing
// and density. It never falls below minSpacing.
func RegionGap(minSpacing float64, d Density) float64 {
	return minSpacing * max(1, d.SpacingFactor())
}
