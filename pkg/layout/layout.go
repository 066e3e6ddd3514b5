// Package layout defines the LayoutSpecification handed to the document
// formatter.
//
// A [Specification] is the terminal artifact of a composition: ordered pages
// (or slides), each holding regions with absolute positions, each region
// holding block placements that refer back to the original content blocks.
// Specifications are only ever emitted after validation.
package layout

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/gestalt/pkg/geom"
)

// SchemaVersion is the version of the serialized specification format.
const SchemaVersion = "1.1"

// PageKind distinguishes word-processing pages from presentation slides.
type PageKind string

// Page kinds.
const (
	PageKindPage  PageKind = "page"
	PageKindSlide PageKind = "slide"
)

// Page templates.
const (
	TemplateSingleColumn     = "single_column"
	TemplateTitleSlide       = "title_slide"
	TemplateImageWithCaption = "image_with_caption"
	TemplateTwoColumn        = "two_column_image_text"
	TemplateBulletList       = "bullet_list"
	TemplateTextHeavy        = "text_heavy"
	TemplateStandardContent  = "standard_content"
)

// Quality grades.
const (
	GradeExcellent        = "excellent"
	GradeGood             = "good"
	GradeAcceptable       = "acceptable"
	GradeNeedsImprovement = "needs_improvement"
)

// =============================================================================
// Specification
// =============================================================================

// Specification is a fully positioned layout.
type Specification struct {
	SchemaVersion     string       `json:"schema_version"`
	SourceFingerprint string       `json:"source_fingerprint"`
	DocumentType      string       `json:"document_type"`
	PageSize          geom.Size    `json:"page_size"`
	Margins           geom.Margins `json:"margins"`
	Pages             []Page       `json:"pages"`
	Diagnostics       []Diagnostic `json:"diagnostics"`
	Quality           Quality      `json:"quality"`

	// Warnings are human-readable notes on principles the layout honored
	// poorly.
	Warnings []string `json:"warnings,omitempty"`

	// Advisories lists suggestions applied by the advisory overlay. It is
	// empty for the cached, deterministic result.
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Page is one page or slide.
type Page struct {
	Index    int      `json:"index"`
	Kind     PageKind `json:"kind"`
	Title    string   `json:"title,omitempty"`
	Template string   `json:"template"`
	Weight   float64  `json:"weight"`
	Regions  []Region `json:"regions"`
}

// Region is a rectangle on a page holding an ordered run of blocks.
type Region struct {
	ID     string     `json:"id"`
	Origin geom.Point `json:"origin"`
	Size   geom.Size  `json:"size"`

	// Capacity is the height available to the region's blocks. The sum of
	// the blocks' estimated heights never exceeds it.
	Capacity float64     `json:"capacity"`
	Blocks   []Placement `json:"blocks"`
}

// Rect returns the region's bounding box.
func (r Region) Rect() geom.Rect {
	return geom.Rect{Origin: r.Origin, Size: r.Size}
}

// ContentHeight returns the sum of the estimated heights of r's blocks.
func (r Region) ContentHeight() float64 {
	var h float64
	for _, b := range r.Blocks {
		h += b.EstimatedHeight
	}
	return h
}

// Placement positions one content block.
type Placement struct {
	BlockID         string    `json:"block_id"`
	Sequence        int       `json:"sequence"`
	Kind            string    `json:"kind"`
	Level           int       `json:"level,omitempty"`
	Rect            geom.Rect `json:"rect"`
	Grid            Grid      `json:"grid"`
	EstimatedHeight float64   `json:"estimated_height"`
	FontSize        float64   `json:"font_size,omitempty"`
	Emphasis        float64   `json:"emphasis"`
	ImageURI        string    `json:"image_uri,omitempty"`
	Styling         Styling   `json:"styling"`
	Tags            Tags      `json:"gestalt"`
}

// Grid locates a placement on the page's column and baseline grid. All
// fields are 1-based.
type Grid struct {
	ColumnStart int `json:"column_start"`
	ColumnSpan  int `json:"column_span"`
	RowStart    int `json:"row_start"`
	RowSpan     int `json:"row_span"`
}

// Styling is the typographic treatment the formatter applies.
type Styling struct {
	FontFamily string  `json:"font_family"`
	FontWeight string  `json:"font_weight"`
	Color      string  `json:"color"`
	Alignment  string  `json:"alignment"`
	LineHeight float64 `json:"line_height"`
}

// Tags record how the grouping principles classified a placement.
type Tags struct {
	// HierarchyLevel runs from 1 (titles) to 5 (captions).
	HierarchyLevel int `json:"hierarchy_level"`
	// ProximityGroup is the id of the region the block was grouped into.
	ProximityGroup string `json:"proximity_group"`
	// SimilarityFamily is shared by blocks styled alike.
	SimilarityFamily string `json:"similarity_family"`
}

// Diagnostic reports how well one design principle was honored.
type Diagnostic struct {
	Rule        string  `json:"rule"`
	Score       float64 `json:"score"`
	Suggestions int     `json:"suggestions"`
	Detail      string  `json:"detail,omitempty"`
}

// Quality is the weighted overall design score.
type Quality struct {
	Score float64 `json:"score"`
	Grade string  `json:"grade"`
}

// Advisory records one applied advisory suggestion.
type Advisory struct {
	Op      string   `json:"op"`
	Targets []string `json:"targets"`
	Value   float64  `json:"value,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// =============================================================================
// Queries
// =============================================================================

// BlockCount returns the number of placed blocks.
func (s *Specification) BlockCount() int {
	n := 0
	for _, p := range s.Pages {
		for _, r := range p.Regions {
			n += len(r.Blocks)
		}
	}
	return n
}

// RegionCount returns the number of regions across all pages.
func (s *Specification) RegionCount() int {
	n := 0
	for _, p := range s.Pages {
		n += len(p.Regions)
	}
	return n
}

// Locate returns the page and region index holding the given block.
func (s *Specification) Locate(blockID string) (page, region int, ok bool) {
	for pi, p := range s.Pages {
		for ri, r := range p.Regions {
			for _, b := range r.Blocks {
				if b.BlockID == blockID {
					return pi, ri, true
				}
			}
		}
	}
	return 0, 0, false
}

// FindRegion returns the page and region index of the region with id.
func (s *Specification) FindRegion(id string) (page, region int, ok bool) {
	for pi, p := range s.Pages {
		for ri, r := range p.Regions {
			if r.ID == id {
				return pi, ri, true
			}
		}
	}
	return 0, 0, false
}

// Clone returns a deep copy of s.
func (s *Specification) Clone() *Specification {
	c := *s
	c.Pages = make([]Page, len(s.Pages))
	for i, p := range s.Pages {
		p.Regions = cloneRegions(p.Regions)
		c.Pages[i] = p
	}
	c.Diagnostics = append([]Diagnostic(nil), s.Diagnostics...)
	c.Warnings = append([]string(nil), s.Warnings...)
	c.Advisories = make([]Advisory, 0, len(s.Advisories))
	for _, a := range s.Advisories {
		a.Targets = append([]string(nil), a.Targets...)
		c.Advisories = append(c.Advisories, a)
	}
	if len(c.Advisories) == 0 {
		c.Advisories = nil
	}
	return &c
}

func cloneRegions(in []Region) []Region {
	out := make([]Region, len(in))
	for i, r := range in {
		r.Blocks = append([]Placement(nil), r.Blocks...)
		out[i] = r
	}
	return out
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal serializes a Specification to pretty-printed JSON bytes.
func Marshal(s *Specification) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Specification.
// Validates that the envelope fields are present.
func Unmarshal(data []byte) (*Specification, error) {
	var s Specification
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	if s.SchemaVersion == "" {
		return nil, fmt.Errorf("layout must contain schema_version")
	}
	if s.DocumentType == "" {
		return nil, fmt.Errorf("layout must contain document_type")
	}
	return &s, nil
}

// WriteFile writes a Specification to a JSON file.
func WriteFile(s *Specification, path string) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Specification from a JSON file.
func ReadFile(path string) (*Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
