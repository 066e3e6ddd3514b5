package compose

import (
	"math"
	"strings"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
)

// placer positions a block whose top edge is at y.
type placer func(b content.Block, y float64) geom.Rect

// placerFor returns the placement policy for a document type: full-width
// vertical flow for word documents, column-snapped grid placement for
// presentations.
func placerFor(dt content.DocumentType, f geom.Frame) placer {
	if dt == content.DocumentPresentation {
		return gridPlacer(f)
	}
	return flowPlacer(f)
}

func flowPlacer(f geom.Frame) placer {
	box := f.Content()
	return func(b content.Block, y float64) geom.Rect {
		w, x := box.Size.Width, box.Origin.X
		if b.Kind == content.KindImage {
			w = math.Min(b.Metrics.Width, box.Size.Width)
			x += (box.Size.Width - w) / 2
		}
		return geom.Rect{
			Origin: geom.Point{X: x, Y: y},
			Size:   geom.Size{Width: w, Height: b.Metrics.Height},
		}
	}
}

// gridPlacer snaps image widths down to whole columns and scales the height
// with them. Images narrower than one column keep their natural size and are
// centred. An image is never scaled up.
func gridPlacer(f geom.Frame) placer {
	box := f.Content()
	col := f.ColumnWidth()
	return func(b content.Block, y float64) geom.Rect {
		if b.Kind != content.KindImage || b.Metrics.Width <= 0 {
			return geom.Rect{
				Origin: geom.Point{X: box.Origin.X, Y: y},
				Size:   geom.Size{Width: box.Size.Width, Height: b.Metrics.Height},
			}
		}
		w, h := b.Metrics.Width, b.Metrics.Height
		if w < col {
			return geom.Rect{
				Origin: geom.Point{X: box.Origin.X + (box.Size.Width-w)/2, Y: y},
				Size:   geom.Size{Width: w, Height: h},
			}
		}
		if snapped := f.SnapWidth(w); snapped < w {
			h *= snapped / w
			w = snapped
		}
		span := int(math.Round((w + f.Gutter) / (col + f.Gutter)))
		lead := max(0, (f.Columns-span)/2)
		return geom.Rect{
			Origin: geom.Point{X: box.Origin.X + float64(lead)*(col+f.Gutter), Y: y},
			Size:   geom.Size{Width: w, Height: h},
		}
	}
}

// =============================================================================
// Titles and Templates
// =============================================================================

const maxTitleRunes = 50

// pageTitle returns the first block's text for slides and the first
// heading's text for pages.
func pageTitle(dt content.DocumentType, p *page) string {
	for _, r := range p.regions {
		for _, s := range r.slots {
			b := s.block
			if dt == content.DocumentPresentation {
				if b.Kind == content.KindImage && b.Image != nil {
					return truncate(b.Image.AltText, maxTitleRunes)
				}
				return truncate(firstLine(b.Text), maxTitleRunes)
			}
			if b.IsHeading() {
				return truncate(firstLine(b.Text), maxTitleRunes)
			}
		}
	}
	return ""
}

// pageTemplate picks a slide template from the slide's content mix. Word
// pages always use a single column.
func pageTemplate(dt content.DocumentType, index int, p *page) string {
	if dt != content.DocumentPresentation {
		return layout.TemplateSingleColumn
	}
	if index == 0 {
		return layout.TemplateTitleSlide
	}

	var text int
	var hasImage, hasList bool
	for _, r := range p.regions {
		for _, s := range r.slots {
			switch s.block.Kind {
			case content.KindImage:
				hasImage = true
			case content.KindList:
				hasList = true
				text++
			case content.KindParagraph:
				text++
			}
		}
	}

	switch {
	case hasImage && text <= 2:
		return layout.TemplateImageWithCaption
	case hasImage:
		return layout.TemplateTwoColumn
	case hasList:
		return layout.TemplateBulletList
	case text >= 4:
		return layout.TemplateTextHeavy
	default:
		return layout.TemplateStandardContent
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
