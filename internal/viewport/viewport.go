// Package viewport maps between world coordinates (fractional day index,
// minutes since midnight) and screen pixels for a camera looking at the
// day canvas. Everything here is a pure function of its arguments.
package viewport

import "math"

// Point is a 2D coordinate. In world space X is a day index and Y is
// minutes since midnight; in screen space both are pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point     { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) Sub(o Point) Point     { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Rect is an axis-aligned rectangle [Min, Max).
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Intersects reports whether r and o share a region of positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Min.X < o.Max.X && r.Max.X > o.Min.X &&
		r.Min.Y < o.Max.Y && r.Max.Y > o.Min.Y
}

// Viewport is the host surface size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the viewport can be rendered into.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0 &&
		!math.IsInf(v.Width, 0) && !math.IsInf(v.Height, 0)
}

// Camera is the viewing offset into the world. X is measured in day-width
// units, Y in pixels from the top of the 24h column. Scale is reserved for
// zoom; zero is treated as 1.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

func (c Camera) scale() float64 {
	if c.Scale <= 0 || math.IsNaN(c.Scale) {
		return 1
	}
	return c.Scale
}

// Space holds the grid metrics shared by the camera and the renderer.
type Space struct {
	// HourHeight is the pixel height of one hour row.
	HourHeight float64
	// DaySpacing is the horizontal gap between two day columns.
	DaySpacing float64
}

// DefaultSpace matches the web canvas defaults.
var DefaultSpace = Space{HourHeight: 80, DaySpacing: 24}

// PixelsPerMinute is HourHeight/60.
func (s Space) PixelsPerMinute() float64 {
	return s.HourHeight / 60
}

// ColumnHeight is the pixel height of a full day.
func (s Space) ColumnHeight() float64 {
	return 24 * s.HourHeight
}

// DayWidth is the pixel span of one day unit, or 0 for an invalid viewport.
func (s Space) DayWidth(v Viewport) float64 {
	if !v.Valid() {
		return 0
	}
	return v.Width + s.DaySpacing
}

// MaxY is the largest camera Y that keeps the column filling the viewport.
func (s Space) MaxY(v Viewport) float64 {
	return math.Max(0, s.ColumnHeight()-v.Height)
}

// ClampY bounds y to [0, MaxY(v)].
func (s Space) ClampY(y float64, v Viewport) float64 {
	if math.IsNaN(y) {
		return 0
	}
	return math.Min(math.Max(y, 0), s.MaxY(v))
}

// WorldToScreen projects a world point to screen pixels. An invalid
// viewport or degenerate grid yields the zero point.
func (s Space) WorldToScreen(p Point, c Camera, v Viewport) Point {
	dw := s.DayWidth(v)
	ppm := s.PixelsPerMinute()
	if dw <= 0 || ppm <= 0 {
		return Point{}
	}
	k := c.scale()
	return Point{
		X: (p.X - c.X) * dw * k,
		Y: (p.Y*ppm - c.Y) * k,
	}
}

// ScreenToWorld is the inverse of WorldToScreen.
func (s Space) ScreenToWorld(p Point, c Camera, v Viewport) Point {
	dw := s.DayWidth(v)
	ppm := s.PixelsPerMinute()
	if dw <= 0 || ppm <= 0 {
		return Point{}
	}
	k := c.scale()
	return Point{
		X: p.X/(dw*k) + c.X,
		Y: (p.Y/k + c.Y) / ppm,
	}
}

// VisibleBounds returns the world rectangle currently on screen.
func (s Space) VisibleBounds(c Camera, v Viewport) Rect {
	if s.DayWidth(v) <= 0 || s.PixelsPerMinute() <= 0 {
		return Rect{}
	}
	return Rect{
		Min: s.ScreenToWorld(Point{}, c, v),
		Max: s.ScreenToWorld(Point{X: v.Width, Y: v.Height}, c, v),
	}
}

// DayBounds is the world rectangle covered by the drawable part of a day
// column (the spacing gutter excluded).
func (s Space) DayBounds(day int, v Viewport) Rect {
	dw := s.DayWidth(v)
	if dw <= 0 {
		return Rect{}
	}
	return Rect{
		Min: Point{X: float64(day), Y: 0},
		Max: Point{X: float64(day) + v.Width/dw, Y: 24 * 60},
	}
}
