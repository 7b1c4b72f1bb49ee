package place

import (
	"math"
	"reflect"
	"testing"

	"daycanvas/internal/model"
	"daycanvas/internal/viewport"
)

var (
	testSpace = viewport.Space{HourHeight: 60, DaySpacing: 20}
	testVP    = viewport.Viewport{Width: 400, Height: 600}
)

func li(id string, start, end, col, total int) model.LayoutInterval {
	return model.LayoutInterval{
		TimeInterval: model.TimeInterval{ID: id, Start: start, End: end, Kind: model.KindEvent, Title: id},
		Column:       col,
		TotalColumns: total,
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBlocksSideBySide(t *testing.T) {
	items := []model.LayoutInterval{
		li("a", 540, 600, 0, 2),
		li("b", 570, 630, 1, 2),
	}
	cam := viewport.Camera{X: 0, Y: 480, Scale: 1}
	got := Blocks(0, items, cam, testVP, testSpace, Options{Gutter: 40, Gap: 4})
	if len(got) != 2 {
		t.Fatalf("got %d blocks, want 2", len(got))
	}

	want := []struct{ top, left, width, height float64 }{
		{60, 40, 178, 60},
		{90, 222, 178, 60},
	}
	for i, w := range want {
		b := got[i]
		if !near(b.Top, w.top) || !near(b.Left, w.left) || !near(b.Width, w.width) || !near(b.Height, w.height) {
			t.Errorf("block %s = %+v, want top=%v left=%v width=%v height=%v", b.ID, b, w.top, w.left, w.width, w.height)
		}
	}
	if got[0].Rect().Intersects(got[1].Rect()) {
		t.Errorf("side-by-side blocks intersect: %+v %+v", got[0].Rect(), got[1].Rect())
	}
}

func TestBlocksCullsOffscreen(t *testing.T) {
	items := []model.LayoutInterval{
		li("early", 0, 60, 0, 1),
		li("seen", 540, 600, 0, 1),
	}
	cam := viewport.Camera{Y: 480, Scale: 1}

	got := Blocks(0, items, cam, testVP, testSpace, Options{})
	if len(got) != 1 || got[0].ID != "seen" {
		t.Fatalf("culled blocks = %+v, want only seen", got)
	}

	all := Blocks(0, items, cam, testVP, testSpace, Options{KeepHidden: true})
	if len(all) != 2 {
		t.Fatalf("KeepHidden returned %d blocks, want 2", len(all))
	}
	if !near(all[0].Top, -480) {
		t.Errorf("early top = %v, want -480", all[0].Top)
	}
}

func TestBlocksOtherDay(t *testing.T) {
	items := []model.LayoutInterval{li("x", 540, 600, 0, 1)}

	if got := Blocks(1, items, viewport.Camera{Y: 480}, testVP, testSpace, Options{}); got != nil {
		t.Fatalf("tomorrow at rest should be culled, got %+v", got)
	}

	mid := viewport.Camera{X: 0.5, Y: 480, Scale: 1}
	got := Blocks(1, items, mid, testVP, testSpace, Options{Gutter: 40})
	if len(got) != 1 {
		t.Fatalf("mid-drag got %d blocks, want 1", len(got))
	}
	if !near(got[0].Left, 250) {
		t.Errorf("left = %v, want 250", got[0].Left)
	}
}

func TestBlocksMinHeight(t *testing.T) {
	items := []model.LayoutInterval{li("tiny", 600, 601, 0, 1)}
	got := Blocks(0, items, viewport.Camera{Y: 480}, testVP, testSpace, Options{MinHeight: 12})
	if len(got) != 1 || !near(got[0].Height, 12) {
		t.Fatalf("got %+v, want one block of height 12", got)
	}
}

func TestBlocksInvalidViewport(t *testing.T) {
	items := []model.LayoutInterval{li("x", 0, 60, 0, 1)}
	if got := Blocks(0, items, viewport.Camera{}, viewport.Viewport{}, testSpace, Options{}); got != nil {
		t.Fatalf("zero viewport produced %+v", got)
	}
}

func TestVisibleDays(t *testing.T) {
	cases := []struct {
		x    float64
		want []int
	}{
		{0, []int{0}},
		{0.5, []int{0, 1}},
		{-0.5, []int{-1, 0}},
		{3, []int{3}},
	}
	for _, c := range cases {
		got := VisibleDays(viewport.Camera{X: c.x, Y: 100}, testVP, testSpace)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("VisibleDays(x=%v) = %v, want %v", c.x, got, c.want)
		}
	}
	if got := VisibleDays(viewport.Camera{}, viewport.Viewport{}, testSpace); got != nil {
		t.Errorf("zero viewport = %v, want nil", got)
	}
}
