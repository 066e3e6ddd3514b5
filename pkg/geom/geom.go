// Package geom provides the geometry primitives shared by the normalizer, the
// composer and the validator.
//
// All values are PostScript points (72 per inch). A [Frame] describes one
// page or slide: its size, its margins and, for grid-based documents, the
// column and baseline grids that positions snap to.
package geom

import "math"

// Epsilon absorbs floating point noise when comparing accumulated heights.
const Epsilon = 1e-6

// PointsPerInch is the conversion factor between inches and points.
const PointsPerInch = 72.0

// LessOrEqual reports whether a <= b within [Epsilon].
func LessOrEqual(a, b float64) bool {
	return a <= b+Epsilon
}

// Point is a position relative to the top-left corner of a page.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Size is a width and height pair.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Origin.Y + r.Size.Height }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Origin.X + r.Size.Width }

// Contains reports whether o lies entirely inside r, within [Epsilon].
func (r Rect) Contains(o Rect) bool {
	return LessOrEqual(r.Origin.X, o.Origin.X) &&
		LessOrEqual(r.Origin.Y, o.Origin.Y) &&
		LessOrEqual(o.Right(), r.Right()) &&
		LessOrEqual(o.Bottom(), r.Bottom())
}

// Margins are the distances from each page edge to the content box.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// IsZero reports whether no margin was set.
func (m Margins) IsZero() bool {
	return m == Margins{}
}

// Uniform returns margins of v on every side.
func Uniform(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Frame describes the printable geometry of one page or slide.
type Frame struct {
	Page    Size    `json:"page"`
	Margins Margins `json:"margins"`

	// Columns and Gutter define the column grid. Zero columns means a single
	// full-width column.
	Columns int     `json:"columns,omitempty"`
	Gutter  float64 `json:"gutter,omitempty"`

	// Baseline is the vertical grid increment. Zero disables snapping.
	Baseline float64 `json:"baseline,omitempty"`
}

// Content returns the content box: the page minus its margins.
func (f Frame) Content() Rect {
	return Rect{
		Origin: Point{X: f.Margins.Left, Y: f.Margins.Top},
		Size: Size{
			Width:  math.Max(0, f.Page.Width-f.Margins.Left-f.Margins.Right),
			Height: math.Max(0, f.Page.Height-f.Margins.Top-f.Margins.Bottom),
		},
	}
}

// ColumnWidth returns the width of one grid column, or the full content
// width when no grid is configured.
func (f Frame) ColumnWidth() float64 {
	w := f.Content().Size.Width
	if f.Columns <= 1 {
		return w
	}
	return (w - f.Gutter*float64(f.Columns-1)) / float64(f.Columns)
}

// SnapHeight rounds h up to the next baseline increment.
func (f Frame) SnapHeight(h float64) float64 {
	if f.Baseline <= 0 || h <= 0 {
		return h
	}
	return math.Ceil(h/f.Baseline-Epsilon) * f.Baseline
}

// SnapY rounds y up to the next baseline line measured from the content top.
func (f Frame) SnapY(y float64) float64 {
	top := f.Margins.Top
	if f.Baseline <= 0 || y <= top {
		return y
	}
	return top + f.SnapHeight(y-top)
}

// SnapWidth rounds w down to a whole number of grid columns, never below
// one column and never above the content width.
func (f Frame) SnapWidth(w float64) float64 {
	full := f.Content().Size.Width
	if f.Columns <= 1 || w >= full-Epsilon {
		return math.Min(w, full)
	}
	col := f.ColumnWidth()
	n := math.Floor((w+f.Gutter)/(col+f.Gutter) + Epsilon)
	n = math.Max(1, math.Min(n, float64(f.Columns)))
	return n*col + (n-1)*f.Gutter
}
