package content

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MeasureConfig controls the text and image size heuristics.
type MeasureConfig struct {
	// BaseFontSize is the body text size in points.
	BaseFontSize float64

	// ScaleRatio is the modular scale between hierarchy levels.
	ScaleRatio float64

	// GlyphWidth is the average advance of one column, in ems.
	GlyphWidth float64

	// LineHeight is the line pitch, in ems.
	LineHeight float64

	// DPI converts image pixels to points.
	DPI float64

	// ListIndent is the extra columns consumed by each list item marker.
	ListIndent int

	// MaxTextLength bounds a single block's text, in runes.
	MaxTextLength int

	// MaxImagePixels bounds each image dimension.
	MaxImagePixels int
}

// DefaultMeasureConfig returns the measurement settings used by the engine:
// 11pt body text on a perfect-fourth scale, half-em glyphs and 96 DPI images.
func DefaultMeasureConfig() MeasureConfig {
	return MeasureConfig{
		BaseFontSize:   11,
		ScaleRatio:     1.333,
		GlyphWidth:     0.5,
		LineHeight:     1.35,
		DPI:            96,
		ListIndent:     2,
		MaxTextLength:  10000,
		MaxImagePixels: 4096,
	}
}

// FontSize returns the font size for a hierarchy level (1 = title, 4 = body).
func (c MeasureConfig) FontSize(hierarchy int) float64 {
	exp := 4 - hierarchy
	return math.Round(c.BaseFontSize * math.Pow(c.ScaleRatio, float64(exp)))
}

// measureText estimates the rendered box of text set at the given hierarchy
// level inside wrapWidth points.
func (c MeasureConfig) measureText(kind Kind, text string, hierarchy int, wrapWidth float64) Metrics {
	size := c.FontSize(hierarchy)
	advance := c.GlyphWidth * size
	perLine := max(1, int(math.Floor(wrapWidth/advance)))

	indent := 0
	if kind == KindList {
		indent = c.ListIndent
	}

	var lines, cols, widest int
	for _, seg := range strings.Split(text, "\n") {
		n := Columns(seg)
		if n == 0 {
			continue
		}
		n += indent
		cols += n
		widest = max(widest, n)
		lines += max(1, (n+perLine-1)/perLine)
	}
	lines = max(1, lines)

	w := math.Min(wrapWidth, float64(widest)*advance)
	h := float64(lines) * c.LineHeight * size
	density := float64(cols) / float64(lines*perLine)

	return Metrics{
		Width:       w,
		Height:      h,
		Weight:      h * (0.6 + 0.4*density),
		TextDensity: density,
		Lines:       lines,
		FontSize:    size,
	}
}

// measureImage converts pixel dimensions to points and scales the result to
// fit wrapWidth, preserving the aspect ratio.
func (c MeasureConfig) measureImage(widthPx, heightPx int, wrapWidth float64) Metrics {
	w := float64(widthPx) * 72 / c.DPI
	h := float64(heightPx) * 72 / c.DPI
	if w > wrapWidth {
		h *= wrapWidth / w
		w = wrapWidth
	}
	return Metrics{Width: w, Height: h, Weight: h}
}

// Columns returns the display width of s in monospace columns. East Asian
// wide and fullwidth runes count as two columns; combining marks count as
// zero.
func Columns(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r), unicode.IsControl(r):
		default:
			switch width.LookupRune(r).Kind() {
			case width.EastAsianWide, width.EastAsianFullwidth:
				n += 2
			default:
				n++
			}
		}
	}
	return n
}

// CleanText canonicalizes block text: NFC normalization, trimmed lines with
// runs of spaces collapsed, and blank lines dropped.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
