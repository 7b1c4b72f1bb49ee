// Package gesture turns raw pointer, touch and wheel input into camera
// motion and day paging requests.
//
// The controller only tracks the gesture in flight (start point, recent
// samples, axis lock). The camera itself belongs to the Target, which
// decides whether a requested move is allowed.
package gesture

import (
	"math"
	"time"

	appLog "daycanvas/internal/log"
	"daycanvas/internal/viewport"
)

// Target is the camera owner a Controller drives.
type Target interface {
	// BeginDrag gives the controller exclusive horizontal control.
	BeginDrag() bool
	// MoveCamera moves the camera by dx day widths and dy pixels.
	MoveCamera(dx, dy float64) bool
	// EndDrag hands the release decision back to the owner.
	EndDrag(d Decision)
	// Dragging reports whether the drag granted by BeginDrag still owns the
	// camera. The owner revokes it by navigating elsewhere.
	Dragging() bool
	Camera() viewport.Camera
	Viewport() viewport.Viewport
	Space() viewport.Space
}

type mode int

const (
	modeIdle mode = iota
	// modePressed: down but still inside the dead zone.
	modePressed
	modeDragX
	modeScrollY
)

type sample struct {
	x float64
	t time.Time
}

// Controller is not safe for concurrent use.
type Controller struct {
	target Target
	th     Thresholds

	mode   mode
	touch  bool
	origin int

	startX, startY float64
	startT         time.Time
	lastX, lastY   float64
	samples        []sample
}

func New(target Target, th Thresholds) *Controller {
	return &Controller{target: target, th: th.Merge(Standard)}
}

// Thresholds returns the active thresholds.
func (c *Controller) Thresholds() Thresholds { return c.th }

// Active reports whether a press or drag is in flight.
func (c *Controller) Active() bool { return c.mode != modeIdle }

// Dragging reports whether the gesture owns the day axis.
func (c *Controller) Dragging() bool { return c.mode == modeDragX }

func (c *Controller) dayWidth() float64 {
	return c.target.Space().DayWidth(c.target.Viewport())
}

// Wheel scrolls vertically by dy pixels. It is ignored while a drag owns
// the camera so the two axes never mix in one gesture.
func (c *Controller) Wheel(dy float64) bool {
	if c.dayWidth() <= 0 || c.mode == modeDragX {
		return false
	}
	return c.target.MoveCamera(0, dy*c.th.WheelScale)
}

// PointerDown starts a mouse/pen gesture.
func (c *Controller) PointerDown(x, y float64, t time.Time) {
	c.press(x, y, t, false)
}

// PointerMove feeds a mouse/pen position. Only horizontal motion is used.
func (c *Controller) PointerMove(x, y float64, t time.Time) {
	if c.touch {
		return
	}
	c.move(x, y, t)
}

// PointerUp releases a mouse/pen gesture. ok is false when the press never
// became a drag.
func (c *Controller) PointerUp(x, y float64, t time.Time) (Decision, bool) {
	if c.touch {
		return Decision{}, false
	}
	return c.release(x, y, t, false)
}

// TouchStart starts a touch gesture.
func (c *Controller) TouchStart(x, y float64, t time.Time) {
	c.press(x, y, t, true)
}

// TouchMove feeds a touch position. The first move past the dead zone
// locks the gesture to the horizontal (paging) or vertical (scroll) axis.
func (c *Controller) TouchMove(x, y float64, t time.Time) {
	if !c.touch {
		return
	}
	c.move(x, y, t)
}

// TouchEnd releases a touch gesture. A swipe pages regardless of offset.
func (c *Controller) TouchEnd(x, y float64, t time.Time) (Decision, bool) {
	if !c.touch {
		return Decision{}, false
	}
	return c.release(x, y, t, true)
}

// Cancel abandons the gesture; an active drag snaps back to its origin.
func (c *Controller) Cancel() {
	if c.mode == modeDragX && c.target.Dragging() {
		c.target.EndDrag(Decision{Action: SnapBack, Origin: c.origin, Target: c.origin})
	}
	c.reset()
}

func (c *Controller) press(x, y float64, t time.Time, touch bool) {
	if c.dayWidth() <= 0 {
		return
	}
	if c.mode != modeIdle {
		c.Cancel()
	}
	c.mode = modePressed
	c.touch = touch
	c.startX, c.startY, c.startT = x, y, t
	c.lastX, c.lastY = x, y
	c.samples = append(c.samples[:0], sample{x: x, t: t})
}

func (c *Controller) move(x, y float64, t time.Time) {
	dw := c.dayWidth()
	if dw <= 0 || c.mode == modeIdle {
		return
	}

	if c.mode == modePressed {
		dx, dy := x-c.startX, y-c.startY
		if math.Hypot(dx, dy) <= c.th.DeadZone {
			return
		}
		switch {
		case math.Abs(dx) >= math.Abs(dy):
			if !c.target.BeginDrag() {
				appLog.Debug("gesture: drag refused by target")
				c.reset()
				return
			}
			c.mode = modeDragX
			c.origin = int(math.Round(c.target.Camera().X))
			// Motion inside the dead zone counts toward the drag.
			c.lastX = c.startX
		case c.touch:
			c.mode = modeScrollY
			c.lastY = c.startY
		default:
			// Vertical mouse drags are not a gesture; the wheel scrolls.
			return
		}
	}

	switch c.mode {
	case modeDragX:
		if !c.target.Dragging() {
			appLog.Debug("gesture: drag revoked by target")
			c.reset()
			return
		}
		c.dragTo(x, dw)
		c.record(x, t)
	case modeScrollY:
		// Finger up scrolls later in the day.
		c.target.MoveCamera(0, c.lastY-y)
		c.lastY = y
	}
}

// dragTo moves the camera opposite to the finger so content follows it,
// bounded to one day either side of the origin.
func (c *Controller) dragTo(x, dw float64) {
	cam := c.target.Camera().X
	want := cam - (x-c.lastX)/dw
	lo, hi := float64(c.origin-1), float64(c.origin+1)
	want = math.Max(lo, math.Min(hi, want))
	c.target.MoveCamera(want-cam, 0)
	c.lastX = x
}

func (c *Controller) record(x float64, t time.Time) {
	c.samples = append(c.samples, sample{x: x, t: t})
	// Keep the slice short; only the trailing window matters.
	if len(c.samples) > 64 {
		c.samples = append(c.samples[:0], c.samples[len(c.samples)-32:]...)
	}
}

func (c *Controller) release(x, y float64, t time.Time, touch bool) (Decision, bool) {
	defer c.reset()

	dw := c.dayWidth()
	if dw <= 0 || c.mode != modeDragX || !c.target.Dragging() {
		return Decision{}, false
	}
	c.dragTo(x, dw)
	c.record(x, t)

	velocity := c.velocity(t, dw)

	var d Decision
	if touch && c.isSwipe(x, t) {
		d = c.th.PageDecision(c.origin, -sign(x-c.startX), velocity)
	} else {
		d = c.th.Decide(c.origin, c.target.Camera().X, velocity)
	}
	appLog.Debug("gesture: release",
		"action", d.Action.String(),
		"origin", d.Origin,
		"target", d.Target,
		"velocity", d.Velocity,
		"touch", touch,
	)
	c.target.EndDrag(d)
	return d, true
}

func (c *Controller) isSwipe(x float64, t time.Time) bool {
	return math.Abs(x-c.startX) >= c.th.SwipeDistance && t.Sub(c.startT) <= c.th.SwipeWindow
}

// velocity is the camera speed in days/s over the trailing window. The
// camera moves against the finger, hence the sign flip.
func (c *Controller) velocity(now time.Time, dw float64) float64 {
	cutoff := now.Add(-c.th.VelocityWindow)
	first := -1
	for i, s := range c.samples {
		if !s.t.Before(cutoff) {
			first = i
			break
		}
	}
	if first < 0 || first == len(c.samples)-1 {
		return 0
	}
	a, b := c.samples[first], c.samples[len(c.samples)-1]
	secs := b.t.Sub(a.t).Seconds()
	if secs <= 0 {
		return 0
	}
	return -(b.x - a.x) / dw / secs
}

func (c *Controller) reset() {
	c.mode = modeIdle
	c.touch = false
	c.samples = c.samples[:0]
}
