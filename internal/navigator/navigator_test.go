package navigator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"daycanvas/internal/frame"
	"daycanvas/internal/gesture"
	"daycanvas/internal/spring"
	"daycanvas/internal/viewport"
)

// 2025-03-12 14:30 local (UTC in tests).
var now = time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		Space:     viewport.Space{HourHeight: 60, DaySpacing: 20},
		Viewport:  viewport.Viewport{Width: 380, Height: 600},
		Spring:    spring.Default,
		WorkStart: 9 * 60,
		WorkEnd:   17 * 60,
		Location:  time.UTC,
	}
}

func newNav(t *testing.T) *Navigator {
	t.Helper()
	n, err := New(testConfig(), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// settle drives the navigator with a 60fps scheduler until it goes idle.
func settle(t *testing.T, n *Navigator) int {
	t.Helper()
	s := frame.New()
	unsub := n.Attach(s)
	defer unsub()
	s.Start()

	clock := now
	s.Tick(clock)
	for i := 1; i <= 600; i++ {
		clock = clock.Add(time.Second / 60)
		s.Tick(clock)
		if n.State() == Idle {
			return i
		}
	}
	t.Fatalf("navigator still %s after 10s, camera %+v", n.State(), n.Camera())
	return 0
}

func TestNewRejectsBadSpring(t *testing.T) {
	cfg := testConfig()
	cfg.Spring.Mass = 0
	_, err := New(cfg)
	var ce *spring.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *spring.ConfigError", err)
	}
}

func TestInitialCameraCentresNow(t *testing.T) {
	n := newNav(t)
	// 14:30 = 870 min = 870px; minus half the 600px viewport.
	if got := n.Camera().Y; got != 570 {
		t.Fatalf("initial y = %v, want 570", got)
	}
	if n.State() != Idle || DateKey(n.CurrentDate()) != "2025-03-12" {
		t.Fatalf("state %s date %s", n.State(), DateKey(n.CurrentDate()))
	}
}

func TestNavigateToTodayFromThreeDaysAway(t *testing.T) {
	n := newNav(t)
	n.NavigateToDate(now.AddDate(0, 0, -3), false)
	if n.Camera().X != -3 || n.State() != Idle {
		t.Fatalf("jump: camera %+v state %s", n.Camera(), n.State())
	}

	var states []State
	n.Subscribe(func(s Snapshot) {
		if len(states) == 0 || states[len(states)-1] != s.State {
			states = append(states, s.State)
		}
	})

	n.NavigateToDate(now, true)
	if n.State() != Animating {
		t.Fatalf("state = %s, want animating", n.State())
	}
	settle(t, n)

	if math.Abs(n.Camera().X-0) > 1e-9 {
		t.Fatalf("camera x = %v, want 0", n.Camera().X)
	}
	if len(states) != 2 || states[0] != Animating || states[1] != Idle {
		t.Fatalf("states = %v, want [animating idle]", states)
	}
}

func TestScrollMemoryRestoresOffset(t *testing.T) {
	n := newNav(t)
	n.Scroll(-200) // today: 570 -> 370
	n.Next()
	settle(t, n)

	// First visit of tomorrow centres working hours: 13:00 -> 780-300.
	if got := n.Camera().Y; got != 480 {
		t.Fatalf("tomorrow y = %v, want 480", got)
	}
	n.Scroll(100)
	n.Previous()
	settle(t, n)
	if got := n.Camera().Y; got != 370 {
		t.Fatalf("back on today y = %v, want remembered 370", got)
	}
	n.Next()
	settle(t, n)
	if got := n.Camera().Y; got != 580 {
		t.Fatalf("tomorrow again y = %v, want remembered 580", got)
	}
}

func TestMoveCameraRejectedWhileAnimating(t *testing.T) {
	n := newNav(t)
	n.Next()
	before := n.Camera()
	if n.MoveCamera(0.5, 10) {
		t.Fatal("MoveCamera accepted during animation")
	}
	if n.Camera() != before {
		t.Fatal("camera changed during rejected move")
	}
}

func TestClampInvariant(t *testing.T) {
	n := newNav(t)
	rnd := rand.New(rand.NewSource(3))
	maxY := n.Space().MaxY(n.Viewport())
	for i := 0; i < 5000; i++ {
		switch rnd.Intn(10) {
		case 0:
			n.BeginDrag()
		case 1:
			n.EndDrag(gesture.Decision{Action: gesture.SnapBack, Target: n.CurrentIndex()})
			n.Step(16 * time.Millisecond)
		case 2:
			n.SetViewport(viewport.Viewport{Width: 380, Height: 200 + rnd.Float64()*1200})
			maxY = n.Space().MaxY(n.Viewport())
		default:
			n.MoveCamera((rnd.Float64()-0.5)*0.2, (rnd.Float64()-0.5)*3000)
		}
		if y := n.Camera().Y; y < 0 || y > maxY {
			t.Fatalf("step %d: y = %v outside [0, %v]", i, y, maxY)
		}
	}
}

func TestDragThenPage(t *testing.T) {
	n := newNav(t)
	if !n.BeginDrag() || n.State() != Dragging {
		t.Fatal("drag refused")
	}
	n.MoveCamera(0.6, 0)
	n.EndDrag(gesture.Decision{Action: gesture.Page, Direction: 1, Origin: 0, Target: 1, Velocity: 0.4})
	if n.State() != Animating {
		t.Fatalf("state = %s", n.State())
	}
	if DateKey(n.CurrentDate()) != "2025-03-13" {
		t.Fatalf("current date = %s", DateKey(n.CurrentDate()))
	}
	settle(t, n)
	if n.Camera().X != 1 {
		t.Fatalf("camera x = %v", n.Camera().X)
	}
}

func TestBeginDragCancelsSpring(t *testing.T) {
	n := newNav(t)
	n.Next()
	n.Step(50 * time.Millisecond)
	x := n.Camera().X
	n.BeginDrag()
	n.Step(50 * time.Millisecond)
	if n.Camera().X != x || n.State() != Dragging {
		t.Fatal("spring kept running after drag began")
	}
}

func TestEndDragAlreadySettledGoesIdle(t *testing.T) {
	n := newNav(t)
	n.BeginDrag()
	n.EndDrag(gesture.Decision{Action: gesture.SnapBack, Target: 0})
	if n.State() != Idle {
		t.Fatalf("state = %s, want idle", n.State())
	}
}

func TestRetargetKeepsSingleSpring(t *testing.T) {
	n := newNav(t)
	n.Next()
	n.Step(50 * time.Millisecond)
	n.Next()
	settle(t, n)
	if n.Camera().X != 2 || DateKey(n.CurrentDate()) != "2025-03-14" {
		t.Fatalf("camera %+v date %s", n.Camera(), DateKey(n.CurrentDate()))
	}
}

func TestGestureControllerDrivesNavigator(t *testing.T) {
	n := newNav(t)
	c := gesture.New(n, gesture.Standard)
	t0 := now

	// 60% of a 400px day to the left, slowly.
	c.PointerDown(300, 100, t0)
	for i := 1; i <= 10; i++ {
		c.PointerMove(300-float64(i*24), 100, t0.Add(time.Duration(i)*200*time.Millisecond))
	}
	d, ok := c.PointerUp(60, 100, t0.Add(2*time.Second))
	if !ok || d.Action != gesture.Page || d.Target != 1 {
		t.Fatalf("decision = %+v ok=%v", d, ok)
	}
	settle(t, n)
	if n.Camera().X != 1 {
		t.Fatalf("camera x = %v, want 1", n.Camera().X)
	}
}

func TestHandleRequests(t *testing.T) {
	n := newNav(t)
	if err := n.Handle(Request{Kind: RequestPage, Delta: 3}); err != nil {
		t.Fatal(err)
	}
	if n.Camera().X != 3 || n.State() != Idle {
		t.Fatalf("page: camera %+v state %s", n.Camera(), n.State())
	}
	if err := n.Handle(Request{Kind: RequestToday, Animated: true}); err != nil {
		t.Fatal(err)
	}
	settle(t, n)
	if n.Camera().X != 0 {
		t.Fatalf("today: camera x = %v", n.Camera().X)
	}
	n.MoveCamera(0.3, 0)
	if err := n.Handle(Request{Kind: RequestSnap, Animated: true}); err != nil {
		t.Fatal(err)
	}
	settle(t, n)
	if n.Camera().X != 0 {
		t.Fatalf("snap: camera x = %v", n.Camera().X)
	}

	if err := n.Handle(Request{Kind: RequestPage}); err == nil {
		t.Fatal("zero delta page accepted")
	}
	if err := n.Handle(Request{Kind: "zoom"}); err == nil {
		t.Fatal("unknown kind accepted")
	}
}

func TestFarDatesAreAccepted(t *testing.T) {
	n := newNav(t)
	far := time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC)
	n.NavigateToDate(far, false)
	if DateKey(n.CurrentDate()) != "2400-01-01" {
		t.Fatalf("date = %s", DateKey(n.CurrentDate()))
	}
	if n.DayOffset(far) != n.CurrentIndex() {
		t.Fatal("DayOffset and CurrentIndex disagree")
	}
}

func TestZeroViewportJumpsInsteadOfAnimating(t *testing.T) {
	cfg := testConfig()
	cfg.Viewport = viewport.Viewport{}
	n, err := New(cfg, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	n.Next()
	if n.State() != Idle || n.Camera().X != 1 {
		t.Fatalf("state %s camera %+v", n.State(), n.Camera())
	}
	if n.BeginDrag() || n.MoveCamera(1, 1) {
		t.Fatal("zero viewport accepted camera input")
	}
}

func TestUnsubscribe(t *testing.T) {
	n := newNav(t)
	calls := 0
	unsub := n.Subscribe(func(Snapshot) { calls++ })
	n.Scroll(10)
	unsub()
	n.Scroll(10)
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestJumpDuringDragRevokesGesture(t *testing.T) {
	n := newNav(t)
	c := gesture.New(n, gesture.Standard)

	c.PointerDown(300, 100, now)
	c.PointerMove(200, 100, now.Add(100*time.Millisecond))
	if n.State() != Dragging {
		t.Fatalf("state = %s, want dragging", n.State())
	}
	if err := n.Handle(Request{Kind: RequestPage, Delta: 3}); err != nil {
		t.Fatal(err)
	}
	if n.Dragging() {
		t.Fatal("jump left the drag in control")
	}

	c.PointerMove(150, 100, now.Add(200*time.Millisecond))
	if _, ok := c.PointerUp(150, 100, now.Add(300*time.Millisecond)); ok {
		t.Fatal("revoked drag still produced a decision")
	}
	if n.Camera().X != 3 || n.CurrentIndex() != 3 || n.State() != Idle {
		t.Fatalf("camera %+v index %d state %s, want day 3 idle", n.Camera(), n.CurrentIndex(), n.State())
	}
}

func TestScrollMemorySkipsDaysNeverReached(t *testing.T) {
	n := newNav(t)
	n.Next()
	for i := 0; i < 5; i++ {
		n.Step(time.Second / 60)
	}
	n.Next()
	if _, ok := n.Memory().Get("2025-03-13"); ok {
		t.Fatal("passed-through day has a remembered offset")
	}
	if y, ok := n.Memory().Get("2025-03-12"); !ok || y != 570 {
		t.Fatalf("today memory = %v, %v; want 570", y, ok)
	}
	settle(t, n)

	n.Previous()
	settle(t, n)
	// First real visit still centres working hours: 13:00 -> 780-300.
	if got := n.Camera().Y; got != 480 {
		t.Fatalf("tomorrow y = %v, want default 480", got)
	}
}

func TestDragFromMidFlightLandsOnDefault(t *testing.T) {
	n := newNav(t)
	n.Next()
	for i := 0; i < 5; i++ {
		n.Step(time.Second / 60)
	}
	if !n.BeginDrag() {
		t.Fatal("drag refused")
	}
	n.EndDrag(gesture.Decision{Action: gesture.SnapBack, Origin: 1, Target: 1})
	settle(t, n)
	if n.Camera().X != 1 || n.Camera().Y != 480 {
		t.Fatalf("camera %+v, want day 1 at default 480", n.Camera())
	}
	if _, ok := n.Memory().Get("2025-03-13"); ok {
		t.Fatal("mid-flight offset remembered")
	}
}

func TestFirstViewportCentresDay(t *testing.T) {
	cfg := testConfig()
	cfg.Viewport = viewport.Viewport{}
	n, err := New(cfg, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	n.SetViewport(viewport.Viewport{Width: 380, Height: 600})
	if got := n.Camera().Y; got != 570 {
		t.Fatalf("y after first viewport = %v, want 570", got)
	}
	// Later resizes only clamp.
	n.SetViewport(viewport.Viewport{Width: 380, Height: 800})
	if got := n.Camera().Y; got != 570 {
		t.Fatalf("y after resize = %v, want 570", got)
	}
}
