// Package viewport describes the drawing surface windows live on and the pure
// geometry helpers used to keep them inside it.
package viewport

import "math"

// CascadeStep is the diagonal offset between windows placed by Cascade.
const CascadeStep = 30

type (
	Point struct {
		X float64 `json:"x" yaml:"x"`
		Y float64 `json:"y" yaml:"y"`
	}

	Rect struct {
		X      float64 `json:"x" yaml:"x"`
		Y      float64 `json:"y" yaml:"y"`
		Width  float64 `json:"width" yaml:"width"`
		Height float64 `json:"height" yaml:"height"`
	}

	// Viewport is the bounded surface with reserved bars at the top and bottom
	// that non-maximized windows must not overlap. TitleHeight is the height of
	// the draggable strip at the top of every window.
	Viewport struct {
		Width          float64 `json:"width" yaml:"width"`
		Height         float64 `json:"height" yaml:"height"`
		ReservedTop    float64 `json:"reserved_top" yaml:"reserved_top"`
		ReservedBottom float64 `json:"reserved_bottom" yaml:"reserved_bottom"`
		TitleHeight    float64 `json:"title_height" yaml:"title_height"`
	}
)

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Usable returns the viewport bounds shrunk by the reserved regions.
func (v Viewport) Usable() Rect {
	top := math.Max(0, v.ReservedTop)
	bottom := math.Max(top, v.Height-math.Max(0, v.ReservedBottom))
	return Rect{
		X:      0,
		Y:      top,
		Width:  math.Max(0, v.Width),
		Height: bottom - top,
	}
}

// Clamp forces g into the usable area while honouring the minimum size. When
// the usable area is smaller than the minimum, the minimum gives way.
func (v Viewport) Clamp(g Rect, minWidth, minHeight float64) Rect {
	u := v.Usable()

	g.Width = clampSize(g.Width, minWidth, u.Width)
	g.Height = clampSize(g.Height, minHeight, u.Height)
	g.X = between(g.X, u.X, u.Right()-g.Width)
	g.Y = between(g.Y, u.Y, u.Bottom()-g.Height)

	return g
}

// ClampDrag keeps a dragged window fully inside horizontally and its title
// strip inside the usable band vertically.
func (v Viewport) ClampDrag(g Rect) Rect {
	u := v.Usable()

	g.X = between(g.X, u.X, u.Right()-g.Width)
	g.Y = between(g.Y, u.Y, u.Bottom()-math.Max(0, v.TitleHeight))

	return g
}

// Fit is the loosest placement a window can reach: Clamp's size rules with
// ClampDrag's position rules. Every geometry produced by Clamp, ClampDrag or
// a bounded resize is left unchanged.
func (v Viewport) Fit(g Rect, minWidth, minHeight float64) Rect {
	u := v.Usable()

	g.Width = clampSize(g.Width, minWidth, u.Width)
	g.Height = clampSize(g.Height, minHeight, u.Height)

	return v.ClampDrag(g)
}

// Snap pulls the candidate flush against any usable edge within threshold
// of it. An edge the start rect was already flush against does not attract
// while the window moves away from it, so a drag can leave that edge.
func (v Viewport) Snap(candidate, start Rect, threshold float64) Rect {
	if threshold <= 0 {
		return candidate
	}

	u := v.Usable()
	candidate.X = snapAxis(candidate.X, candidate.Width, start.X, u.X, u.Right(), threshold)
	candidate.Y = snapAxis(candidate.Y, candidate.Height, start.Y, u.Y, u.Bottom(), threshold)

	return candidate
}

// snapAxis snaps pos on one axis between the low and high edges. The nearer
// edge wins when both are in range.
func snapAxis(pos, size, from, low, high, threshold float64) float64 {
	lowDist := math.Abs(pos - low)
	highDist := math.Abs(pos + size - high)

	lowOK := lowDist <= threshold && !(from == low && pos > from)
	highOK := highDist <= threshold && !(from+size == high && pos < from)

	switch {
	case lowOK && (!highOK || lowDist <= highDist):
		return low
	case highOK:
		return high - size
	default:
		return pos
	}
}

// Cascade returns the top-left corner for the index-th auto-placed window.
func (v Viewport) Cascade(index int) Point {
	u := v.Usable()
	step := float64(index%10) * CascadeStep
	return Point{X: u.X + step, Y: u.Y + step}
}

func clampSize(size, minimum, limit float64) float64 {
	minimum = math.Min(math.Max(0, minimum), limit)
	if math.IsNaN(size) || size < minimum {
		return minimum
	}
	return math.Min(size, limit)
}

// between clamps value into [low, high]; low wins when the range is empty.
func between(value, low, high float64) float64 {
	if math.IsNaN(value) || value < low {
		return low
	}
	if value > high {
		return math.Max(low, high)
	}
	return value
}
