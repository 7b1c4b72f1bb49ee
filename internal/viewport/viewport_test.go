package viewport

import (
	"math"
	"math/rand"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	spaces := []Space{DefaultSpace, {HourHeight: 3, DaySpacing: 0}, {HourHeight: 120, DaySpacing: 40}}
	for i := 0; i < 2000; i++ {
		s := spaces[i%len(spaces)]
		v := Viewport{Width: 1 + rnd.Float64()*2000, Height: 1 + rnd.Float64()*1500}
		c := Camera{X: (rnd.Float64() - 0.5) * 1e4, Y: rnd.Float64() * 2000, Scale: []float64{0, 1, 0.5, 2.25}[i%4]}
		p := Point{X: (rnd.Float64() - 0.5) * 1e4, Y: rnd.Float64() * 1440}

		got := s.ScreenToWorld(s.WorldToScreen(p, c, v), c, v)
		if !near(got.X, p.X) || !near(got.Y, p.Y) {
			t.Fatalf("round trip %d: %+v -> %+v (camera %+v viewport %+v)", i, p, got, c, v)
		}
	}
}

func TestWorldToScreen(t *testing.T) {
	s := Space{HourHeight: 60, DaySpacing: 20}
	v := Viewport{Width: 380, Height: 600}
	c := Camera{X: 2, Y: 480, Scale: 1}

	// 09:00 on day 3 is one day width right of the camera and 60px below it.
	got := s.WorldToScreen(Point{X: 3, Y: 540}, c, v)
	if got.X != 400 || got.Y != 60 {
		t.Fatalf("got %+v, want {400 60}", got)
	}
}

func TestZeroViewportNoops(t *testing.T) {
	s := DefaultSpace
	c := Camera{X: 1, Y: 100}
	for _, v := range []Viewport{{}, {Width: 0, Height: 100}, {Width: 100, Height: -1}} {
		if p := s.WorldToScreen(Point{X: 5, Y: 5}, c, v); p != (Point{}) {
			t.Fatalf("WorldToScreen with %+v = %+v", v, p)
		}
		if p := s.ScreenToWorld(Point{X: 5, Y: 5}, c, v); p != (Point{}) {
			t.Fatalf("ScreenToWorld with %+v = %+v", v, p)
		}
		if r := s.VisibleBounds(c, v); r != (Rect{}) {
			t.Fatalf("VisibleBounds with %+v = %+v", v, r)
		}
	}
}

func TestVisibleBounds(t *testing.T) {
	s := Space{HourHeight: 60, DaySpacing: 20}
	v := Viewport{Width: 380, Height: 600}
	r := s.VisibleBounds(Camera{X: 4, Y: 480}, v)

	if !near(r.Min.X, 4) || !near(r.Max.X, 4.95) {
		t.Fatalf("x bounds = [%v, %v]", r.Min.X, r.Max.X)
	}
	if !near(r.Min.Y, 480) || !near(r.Max.Y, 1080) {
		t.Fatalf("y bounds = [%v, %v]", r.Min.Y, r.Max.Y)
	}
	if !r.Intersects(s.DayBounds(4, v)) {
		t.Fatal("current day must be visible")
	}
	if r.Intersects(s.DayBounds(6, v)) {
		t.Fatal("day 6 must be culled")
	}
}

func TestClampY(t *testing.T) {
	s := Space{HourHeight: 50}
	v := Viewport{Width: 300, Height: 400}
	if got := s.ClampY(-10, v); got != 0 {
		t.Fatalf("ClampY(-10) = %v", got)
	}
	if got := s.ClampY(5000, v); got != 800 {
		t.Fatalf("ClampY(5000) = %v, want 800", got)
	}
	tall := Viewport{Width: 300, Height: 2000}
	if got := s.ClampY(300, tall); got != 0 {
		t.Fatalf("ClampY with tall viewport = %v, want 0", got)
	}
}
