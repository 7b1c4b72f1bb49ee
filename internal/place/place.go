// Package place turns laid-out intervals into screen rectangles for a
// renderer, combining the camera transform with column assignments.
package place

import (
	"math"

	"daycanvas/internal/model"
	"daycanvas/internal/viewport"
)

// Block is one interval ready to draw, in screen pixels.
type Block struct {
	ID    string     `json:"id"`
	Kind  model.Kind `json:"kind"`
	Title string     `json:"title"`
	Start int        `json:"start_minutes"`
	End   int        `json:"end_minutes"`

	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Column       int `json:"column"`
	TotalColumns int `json:"total_columns"`
}

// Rect returns the block as a screen rectangle.
func (b Block) Rect() viewport.Rect {
	return viewport.Rect{
		Min: viewport.Point{X: b.Left, Y: b.Top},
		Max: viewport.Point{X: b.Left + b.Width, Y: b.Top + b.Height},
	}
}

// Options shape the day column.
type Options struct {
	// Gutter is reserved on the left of every day column for hour labels.
	Gutter float64 `yaml:"gutter" json:"gutter"`
	// Gap separates side-by-side columns.
	Gap float64 `yaml:"gap" json:"gap"`
	// MinHeight keeps very short entries clickable.
	MinHeight float64 `yaml:"min_height" json:"min_height"`
	// KeepHidden disables culling of off-screen blocks.
	KeepHidden bool `yaml:"-" json:"-"`
}

// Blocks places the items of one day. Items whose rectangle lies entirely
// off screen are culled unless opts.KeepHidden is set. An invalid viewport
// yields nothing.
func Blocks(day int, items []model.LayoutInterval, cam viewport.Camera, vp viewport.Viewport, space viewport.Space, opts Options) []Block {
	if space.DayWidth(vp) <= 0 || space.PixelsPerMinute() <= 0 {
		return nil
	}

	// Cheap reject: the whole day column is off screen.
	visible := space.VisibleBounds(cam, vp)
	if !opts.KeepHidden && !visible.Intersects(space.DayBounds(day, vp)) {
		return nil
	}

	scale := cam.Scale
	if scale <= 0 {
		scale = 1
	}
	origin := space.WorldToScreen(viewport.Point{X: float64(day)}, cam, vp)
	inner := math.Max(0, vp.Width*scale-opts.Gutter*scale)
	screen := viewport.Rect{Max: viewport.Point{X: vp.Width, Y: vp.Height}}

	out := make([]Block, 0, len(items))
	for _, it := range items {
		total := it.TotalColumns
		if total < 1 {
			total = 1
		}
		gaps := opts.Gap * scale * float64(total-1)
		colW := math.Max(0, (inner-gaps)/float64(total))

		top := space.WorldToScreen(viewport.Point{X: float64(day), Y: float64(it.Start)}, cam, vp).Y
		height := float64(it.Duration()) * space.PixelsPerMinute() * scale
		height = math.Max(height, opts.MinHeight*scale)

		b := Block{
			ID:           it.ID,
			Kind:         it.Kind,
			Title:        it.Title,
			Start:        it.Start,
			End:          it.End,
			Top:          top,
			Left:         origin.X + opts.Gutter*scale + float64(it.Column)*(colW+opts.Gap*scale),
			Width:        colW,
			Height:       height,
			Column:       it.Column,
			TotalColumns: total,
		}
		if !opts.KeepHidden && !b.Rect().Intersects(screen) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// VisibleDays lists the day indexes at least partly on screen, leftmost
// first. At rest this is the current day; mid-drag it is two.
func VisibleDays(cam viewport.Camera, vp viewport.Viewport, space viewport.Space) []int {
	b := space.VisibleBounds(cam, vp)
	if b.Width() <= 0 {
		return nil
	}
	var days []int
	for d := int(math.Floor(b.Min.X)); float64(d) < b.Max.X; d++ {
		if b.Intersects(space.DayBounds(d, vp)) {
			days = append(days, d)
		}
	}
	return days
}
