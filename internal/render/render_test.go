package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"daycanvas/internal/model"
	"daycanvas/internal/navigator"
	"daycanvas/internal/place"
	"daycanvas/internal/spring"
	"daycanvas/internal/viewport"
)

func newNav(t *testing.T) *navigator.Navigator {
	t.Helper()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	n, err := navigator.New(navigator.Config{
		Space:    viewport.Space{HourHeight: 60, DaySpacing: 20},
		Viewport: viewport.Viewport{Width: 400, Height: 600},
		Spring:   spring.Default,
		Location: time.UTC,
	}, navigator.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

var abc = Fixed{
	{ID: "a", Start: 540, End: 600, Kind: model.KindEvent, Title: "R&D sync"},
	{ID: "b", Start: 570, End: 630, Kind: model.KindFocus, Title: "Focus"},
	{ID: "c", Start: 600, End: 660, Kind: model.KindTask, Title: "Review"},
	{ID: "", Start: 700, End: 710, Kind: model.KindTask, Title: "no id"},
}

func TestBuild(t *testing.T) {
	sc := Build(newNav(t), abc, place.Options{Gutter: 40})
	if len(sc.Days) != 1 {
		t.Fatalf("days = %d, want 1", len(sc.Days))
	}
	d := sc.Days[0]
	if d.Date != "2025-03-12" || d.Index != 0 {
		t.Errorf("day = %s/%d", d.Date, d.Index)
	}
	if len(d.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", d.Warnings)
	}
	cols := map[string]int{}
	for _, b := range d.Blocks {
		cols[b.ID] = b.Column
		if b.TotalColumns != 2 {
			t.Errorf("%s total = %d, want 2", b.ID, b.TotalColumns)
		}
	}
	if cols["a"] != 0 || cols["b"] != 1 || cols["c"] != 0 {
		t.Errorf("columns = %v", cols)
	}
}

func TestBuildMidDragShowsTwoDays(t *testing.T) {
	n := newNav(t)
	n.BeginDrag()
	n.MoveCamera(0.5, 0)
	sc := Build(n, abc, place.Options{})
	if len(sc.Days) != 2 || sc.Days[1].Date != "2025-03-13" {
		t.Fatalf("days = %+v", sc.Days)
	}
	if sc.Days[1].Left != 210 {
		t.Errorf("second day left = %v, want 210", sc.Days[1].Left)
	}
}

type failing struct{}

func (failing) Day(time.Time) ([]model.TimeInterval, error) { return nil, errors.New("offline") }

func TestBuildProviderError(t *testing.T) {
	sc := Build(newNav(t), failing{}, place.Options{})
	if len(sc.Days) != 1 || len(sc.Days[0].Blocks) != 0 {
		t.Fatalf("scene = %+v", sc)
	}
}

func TestWriteSVG(t *testing.T) {
	sc := Build(newNav(t), abc, place.Options{Gutter: 40})
	var b strings.Builder
	if err := WriteSVG(&b, sc); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{`data-ready="true"`, `width="400"`, "R&amp;D sync", "2025-03-12", "10:00", Palette[model.KindFocus]} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if n := strings.Count(out, "<g data-id="); n != 3 {
		t.Errorf("blocks drawn = %d, want 3", n)
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Error("svg not closed")
	}
}
