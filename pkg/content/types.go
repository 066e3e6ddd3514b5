// Package content implements the content model normalizer.
//
// Intake hands the engine a [Package]: ordered raw blocks, image assets, a
// design intent and layout constraints. [Normalizer.Normalize] range-checks
// the package, resolves defaults and converts every block into an immutable
// [Block] with computed metrics (estimated rendered size, text density and
// visual weight). The rest of the engine only ever sees normalized blocks.
//
// # Usage
//
//	pkg, err := content.ReadPackageFile("deck.yaml")
//	if err != nil {
//	    return err
//	}
//	norm, err := content.NewNormalizer(content.DefaultMeasureConfig()).Normalize(pkg)
//	if err != nil {
//	    return err // NORMALIZATION_ERROR with the offending block id
//	}
package content

import (
	"github.com/matzehuels/gestalt/pkg/geom"
)

// Kind is the type of a content block.
type Kind string

// Supported block kinds.
const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindList      Kind = "list"
	KindQuote     Kind = "quote"
	KindCallout   Kind = "callout"
	KindImage     Kind = "image"
)

// ValidKinds is the set of supported block kinds.
var ValidKinds = map[Kind]bool{
	KindHeading:   true,
	KindParagraph: true,
	KindList:      true,
	KindQuote:     true,
	KindCallout:   true,
	KindImage:     true,
}

// IsText reports whether blocks of this kind carry text.
func (k Kind) IsText() bool { return k != KindImage }

// Density is the requested visual density.
type Density string

// Supported densities.
const (
	DensityTight    Density = "tight"
	DensityBalanced Density = "balanced"
	DensityAiry     Density = "airy"
)

// ValidDensities is the set of supported densities.
var ValidDensities = map[Density]bool{
	DensityTight:    true,
	DensityBalanced: true,
	DensityAiry:     true,
}

// SpacingFactor scales region gaps: tight 0.7, balanced 1.0, airy 1.5.
func (d Density) SpacingFactor() float64 {
	switch d {
	case DensityTight:
		return 0.7
	case DensityAiry:
		return 1.5
	default:
		return 1.0
	}
}

// DocumentType is the target document family.
type DocumentType string

// Supported document types.
const (
	DocumentWord         DocumentType = "word"
	DocumentPresentation DocumentType = "presentation"
)

// ValidDocumentTypes is the set of supported document types.
var ValidDocumentTypes = map[DocumentType]bool{
	DocumentWord:         true,
	DocumentPresentation: true,
}

// Purposes accepted in a design intent.
const (
	PurposeReport       = "report"
	PurposePresentation = "presentation"
	PurposeProposal     = "proposal"
	PurposePlaybook     = "playbook"
)

// ValidPurposes is the set of supported design purposes.
var ValidPurposes = map[string]bool{
	PurposeReport:       true,
	PurposePresentation: true,
	PurposeProposal:     true,
	PurposePlaybook:     true,
}

// =============================================================================
// Intake Package
// =============================================================================

// Package is the content-intent package received from intake.
type Package struct {
	SessionID   string       `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Blocks      []RawBlock   `json:"content_blocks" yaml:"content_blocks"`
	Images      []ImageAsset `json:"images,omitempty" yaml:"images,omitempty"`
	Intent      DesignIntent `json:"design_intent" yaml:"design_intent"`
	Constraints Constraints  `json:"constraints" yaml:"constraints"`
}

// RawBlock is a content block as delivered by intake, before normalization.
type RawBlock struct {
	ID       string `json:"block_id" yaml:"block_id"`
	Kind     Kind   `json:"type" yaml:"type"`
	Level    int    `json:"level,omitempty" yaml:"level,omitempty"`
	Sequence int    `json:"sequence" yaml:"sequence"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	ImageID  string `json:"image_id,omitempty" yaml:"image_id,omitempty"`
}

// ImageAsset describes an image supplied alongside the blocks.
type ImageAsset struct {
	ID       string `json:"image_id" yaml:"image_id"`
	URI      string `json:"uri" yaml:"uri"`
	Format   string `json:"format" yaml:"format"`
	WidthPx  int    `json:"width_px" yaml:"width_px"`
	HeightPx int    `json:"height_px" yaml:"height_px"`
	AltText  string `json:"alt_text,omitempty" yaml:"alt_text,omitempty"`
	Role     string `json:"content_role,omitempty" yaml:"content_role,omitempty"`
}

// DesignIntent captures what the document is for. It is read-only input.
type DesignIntent struct {
	Purpose  string   `json:"purpose" yaml:"purpose"`
	Audience string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	Tone     string   `json:"tone,omitempty" yaml:"tone,omitempty"`
	Goals    []string `json:"goals,omitempty" yaml:"goals,omitempty"`
	Density  Density  `json:"density,omitempty" yaml:"density,omitempty"`
}

// Constraints are hard layout limits. Zero values select defaults.
type Constraints struct {
	MaxPages     int          `json:"max_pages_or_slides,omitempty" yaml:"max_pages_or_slides,omitempty"`
	Margins      geom.Margins `json:"margins,omitempty" yaml:"margins,omitempty"`
	MinSpacing   float64      `json:"min_spacing,omitempty" yaml:"min_spacing,omitempty"`
	Density      Density      `json:"density,omitempty" yaml:"density,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty" yaml:"document_type,omitempty"`
}

// =============================================================================
// Normalized Model
// =============================================================================

// Block is a normalized content block. Blocks are immutable once produced by
// the normalizer and owned by the pipeline run that created them.
type Block struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Level    int       `json:"level,omitempty"`
	Sequence int       `json:"sequence"`
	Text     string    `json:"text,omitempty"`
	Image    *ImageRef `json:"image,omitempty"`
	Metrics  Metrics   `json:"metrics"`
}

// ImageRef is the resolved image behind an image block.
type ImageRef struct {
	ID       string `json:"id"`
	URI      string `json:"uri"`
	Format   string `json:"format"`
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	AltText  string `json:"alt_text,omitempty"`
}

// Metrics are the measured properties of a block.
type Metrics struct {
	Width       float64 `json:"estimated_width"`
	Height      float64 `json:"estimated_height"`
	Weight      float64 `json:"weight"`
	TextDensity float64 `json:"text_density"`
	Lines       int     `json:"lines,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
}

// IsHeading reports whether b is a heading.
func (b Block) IsHeading() bool { return b.Kind == KindHeading }

// Hierarchy returns the visual hierarchy level from 1 (most prominent) to 4
// (body text). Headings of level 0 are titles.
func (b Block) Hierarchy() int {
	switch b.Kind {
	case KindHeading:
		return min(b.Level+1, 3)
	case KindQuote, KindCallout:
		return 3
	default:
		return 4
	}
}

// Normalized is the output of the normalizer: blocks in sequence order plus
// the resolved intent, constraints and page frame.
type Normalized struct {
	SessionID    string       `json:"session_id,omitempty"`
	DocumentType DocumentType `json:"document_type"`
	Frame        geom.Frame   `json:"frame"`
	Intent       DesignIntent `json:"intent"`
	Constraints  Constraints  `json:"constraints"`
	Blocks       []Block      `json:"blocks"`
}

// Block returns the block with the given id.
func (n *Normalized) Block(id string) (Block, bool) {
	for _, b := range n.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return Block{}, false
}

// Density returns the effective density.
func (n *Normalized) Density() Density { return n.Constraints.Density }
