// Package render assembles what is on screen (visible days, their laid-out
// blocks) and draws it as SVG.
package render

import (
	"time"

	"daycanvas/internal/layout"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/model"
	"daycanvas/internal/navigator"
	"daycanvas/internal/place"
	"daycanvas/internal/viewport"
)

// DayProvider supplies one day's intervals. *schedule.Store implements it.
type DayProvider interface {
	Day(date time.Time) ([]model.TimeInterval, error)
}

// View is the read side of a navigator.
type View interface {
	Camera() viewport.Camera
	Viewport() viewport.Viewport
	Space() viewport.Space
	DateAt(day int) time.Time
}

// Day is one visible day column.
type Day struct {
	Index    int                       `json:"index"`
	Date     string                    `json:"date"`
	Left     float64                   `json:"left"`
	Blocks   []place.Block             `json:"blocks"`
	Warnings []model.ValidationWarning `json:"warnings,omitempty"`
}

// Scene is everything a renderer needs for one frame.
type Scene struct {
	Camera   viewport.Camera   `json:"camera"`
	Viewport viewport.Viewport `json:"viewport"`
	Space    viewport.Space    `json:"-"`
	Options  place.Options     `json:"-"`
	Days     []Day             `json:"days"`
}

// Build lays out and places every day visible through v. A day whose
// provider call fails is kept empty and logged.
func Build(v View, days DayProvider, opts place.Options) Scene {
	cam, vp, space := v.Camera(), v.Viewport(), v.Space()
	sc := Scene{Camera: cam, Viewport: vp, Space: space, Options: opts}

	for _, idx := range place.VisibleDays(cam, vp, space) {
		date := v.DateAt(idx)
		d := Day{
			Index: idx,
			Date:  navigator.DateKey(date),
			Left:  space.WorldToScreen(viewport.Point{X: float64(idx)}, cam, vp).X,
		}
		if days != nil {
			intervals, err := days.Day(date)
			if err != nil {
				appLog.Error("render: day unavailable", err, "date", d.Date)
			}
			res := layout.Compute(intervals)
			for _, w := range res.Warnings {
				appLog.Warn("render: interval dropped", "date", d.Date, "reason", w.String())
			}
			d.Warnings = res.Warnings
			d.Blocks = place.Blocks(idx, res.Intervals, cam, vp, space, opts)
		}
		sc.Days = append(sc.Days, d)
	}
	return sc
}

// Fixed serves the same intervals for every date; the layout command and
// tests use it.
type Fixed []model.TimeInterval

func (f Fixed) Day(time.Time) ([]model.TimeInterval, error) { return f, nil }
