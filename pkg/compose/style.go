package compose

import (
	"fmt"
	"math"

	"github.com/matzehuels/gestalt/pkg/content"
	"github.com/matzehuels/gestalt/pkg/geom"
	"github.com/matzehuels/gestalt/pkg/layout"
)

// Typography defaults handed to the formatter.
const (
	FontFamily     = "Arial"
	TextLineHeight = 1.35
	captionLevel   = 5
)

// textColors by hierarchy level: titles near black, body dark gray,
// captions light gray.
var textColors = map[int]string{
	1: "#1a1a1a",
	2: "#333333",
	3: "#4a4a4a",
	4: "#333333",
	5: "#666666",
}

// hierarchyLevel returns the placement hierarchy. Images rank as captions.
func hierarchyLevel(b content.Block) int {
	if b.Kind == content.KindImage {
		return captionLevel
	}
	return b.Hierarchy()
}

// TextColor returns the text color for a hierarchy level.
func TextColor(level int) string {
	if c, ok := textColors[level]; ok {
		return c
	}
	return textColors[4]
}

// styleOf derives the styling of b. Slide titles and images are centred.
func styleOf(dt content.DocumentType, b content.Block) layout.Styling {
	level := hierarchyLevel(b)
	st := layout.Styling{
		FontFamily: FontFamily,
		FontWeight: "normal",
		Color:      TextColor(level),
		Alignment:  "left",
		LineHeight: TextLineHeight,
	}
	if level <= 2 {
		st.FontWeight = "bold"
	}
	switch {
	case b.Kind == content.KindImage:
		st.Alignment = "center"
		st.LineHeight = 1
	case dt == content.DocumentPresentation && b.IsHeading() && b.Level == 0:
		st.Alignment = "center"
	}
	return st
}

// tagsOf records the principle groupings of b placed in region.
func tagsOf(b content.Block, region string) layout.Tags {
	family := string(b.Kind)
	if b.IsHeading() {
		family = fmt.Sprintf("heading-%d", b.Level)
	}
	return layout.Tags{
		HierarchyLevel:   hierarchyLevel(b),
		ProximityGroup:   region,
		SimilarityFamily: family,
	}
}

// gridOf maps r onto the frame's column and baseline grid. Frames without a
// baseline number rows by the block's ordinal on its page.
func gridOf(f geom.Frame, r geom.Rect, ordinal int) layout.Grid {
	box := f.Content()
	g := layout.Grid{ColumnStart: 1, ColumnSpan: 1, RowStart: ordinal, RowSpan: 1}
	if f.Columns > 1 {
		step := f.ColumnWidth() + f.Gutter
		start := int(math.Floor((r.Origin.X-box.Origin.X)/step + geom.Epsilon))
		end := int(math.Ceil((r.Right()-box.Origin.X+f.Gutter)/step - geom.Epsilon))
		start = max(0, min(start, f.Columns-1))
		g.ColumnStart = start + 1
		g.ColumnSpan = max(1, min(end, f.Columns)-start)
	}
	if f.Baseline > 0 {
		g.RowStart = int(math.Floor((r.Origin.Y-box.Origin.Y)/f.Baseline+geom.Epsilon)) + 1
		g.RowSpan = max(1, int(math.Ceil(r.Size.Height/f.Baseline-geom.Epsilon)))
	}
	return g
}

// warningThreshold is the diagnostic score below which a warning is raised.
const warningThreshold = 0.75

func warnings(diags []layout.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		if d.Score < warningThreshold {
			out = append(out, fmt.Sprintf("%s scored %.2f: %s", d.Rule, d.Score, d.Detail))
		}
	}
	return out
}
