// Package navigator owns the canvas camera and the date it shows.
//
// The Navigator is a small state machine:
//
//	Idle      camera at rest
//	Animating a spring moves the camera; the frame scheduler drives Step
//	Dragging  a gesture controller moves camera X directly
//
// Exactly one of the spring or the gesture writes the camera at a time.
// Consumers read state through accessors or Subscribe; they never mutate
// the camera directly.
package navigator

import (
	"math"
	"time"

	"daycanvas/internal/frame"
	"daycanvas/internal/gesture"
	appLog "daycanvas/internal/log"
	"daycanvas/internal/model"
	"daycanvas/internal/spring"
	"daycanvas/internal/viewport"
)

type State int

const (
	Idle State = iota
	Animating
	Dragging
)

func (s State) String() string {
	switch s {
	case Animating:
		return "animating"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config describes the canvas the navigator moves over.
type Config struct {
	Space    viewport.Space
	Viewport viewport.Viewport
	Spring   spring.Config

	// WorkStart/WorkEnd (minutes since midnight) centre the first visit of
	// any day other than today.
	WorkStart int
	WorkEnd   int

	// Location is the zone dates are interpreted in; nil means time.Local.
	Location *time.Location
}

// Snapshot is what subscribers receive after every change.
type Snapshot struct {
	State    State             `json:"state"`
	Date     string            `json:"date"`
	DayIndex int               `json:"day_index"`
	Camera   viewport.Camera   `json:"camera"`
	Viewport viewport.Viewport `json:"viewport"`
}

type Option func(*Navigator)

// WithClock injects the time source used for "today" and default centring.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		if now != nil {
			n.now = now
		}
	}
}

// WithAnchor pins day index 0 to the given date instead of today.
func WithAnchor(date time.Time) Option {
	return func(n *Navigator) { n.anchor = date }
}

type subscriber struct {
	id uint64
	fn func(Snapshot)
}

// Navigator is not safe for concurrent use.
type Navigator struct {
	cfg   Config
	space viewport.Space
	vp    viewport.Viewport
	loc   *time.Location
	now   func() time.Time

	cam   viewport.Camera
	state State

	anim *spring.Animator
	// animUnit converts day units to spring pixels, fixed for the life of
	// one transition so a resize mid-flight does not jolt the camera.
	animUnit float64

	anchor  time.Time
	current int
	// settled is the last day the camera came to rest on; atRest is false
	// while camera Y is a mid-flight value that belongs to no day.
	settled int
	atRest  bool
	memory  ScrollMemory

	subs   []subscriber
	nextID uint64
}

// New validates cfg (a bad spring config fails here, not on first use) and
// places the camera on the anchor day.
func New(cfg Config, opts ...Option) (*Navigator, error) {
	if err := cfg.Spring.Validate(); err != nil {
		return nil, err
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.WorkEnd <= cfg.WorkStart {
		cfg.WorkStart, cfg.WorkEnd = 9*60, 17*60
	}

	n := &Navigator{
		cfg:    cfg,
		space:  cfg.Space,
		vp:     cfg.Viewport,
		loc:    cfg.Location,
		now:    time.Now,
		memory: make(ScrollMemory),
		cam:    viewport.Camera{Scale: 1},
		atRest: true,
	}
	for _, o := range opts {
		o(n)
	}
	if n.anchor.IsZero() {
		n.anchor = n.now()
	}
	n.anchor = midnight(n.anchor, n.loc)
	n.cam.Y = n.defaultY(n.anchor)
	return n, nil
}

// Attach registers Step as a frame callback and returns the unsubscribe.
func (n *Navigator) Attach(s *frame.Scheduler) func() {
	return s.AddCallback(n.Step)
}

func (n *Navigator) State() State                { return n.state }
func (n *Navigator) Camera() viewport.Camera     { return n.cam }
func (n *Navigator) Viewport() viewport.Viewport { return n.vp }
func (n *Navigator) Space() viewport.Space       { return n.space }
func (n *Navigator) Location() *time.Location    { return n.loc }
func (n *Navigator) Memory() ScrollMemory        { return n.memory }

// Dragging reports whether a gesture currently owns camera X. A drag loses
// ownership when a navigation replaces it.
func (n *Navigator) Dragging() bool { return n.state == Dragging }

// CurrentDate is the day the camera rests on, or is heading to.
func (n *Navigator) CurrentDate() time.Time {
	return n.DateAt(n.current)
}

// CurrentIndex is CurrentDate as a day index.
func (n *Navigator) CurrentIndex() int { return n.current }

// DayOffset converts a date to its world X (day index from the anchor).
func (n *Navigator) DayOffset(date time.Time) int {
	a := n.anchor
	d := date.In(n.loc)
	// Compare civil dates in UTC so DST shifts never round wrong. Unix
	// seconds rather than Sub: a Duration overflows past ~290 years.
	ca := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC).Unix()
	cd := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
	return int((cd - ca) / 86400)
}

// DateAt converts a day index back to local midnight of that date.
func (n *Navigator) DateAt(day int) time.Time {
	return n.anchor.AddDate(0, 0, day)
}

// Snapshot returns the current public state.
func (n *Navigator) Snapshot() Snapshot {
	return Snapshot{
		State:    n.state,
		Date:     DateKey(n.CurrentDate()),
		DayIndex: n.current,
		Camera:   n.cam,
		Viewport: n.vp,
	}
}

// Subscribe calls fn after every state or camera change, in subscription
// order. The returned func removes it.
func (n *Navigator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

func (n *Navigator) notify() {
	if len(n.subs) == 0 {
		return
	}
	snap := n.Snapshot()
	for _, s := range n.subs {
		s.fn(snap)
	}
}

// SetViewport applies a new host size and re-clamps the camera. The first
// usable size re-centres the current day, since nothing can scroll before
// the surface has a height.
func (n *Navigator) SetViewport(v viewport.Viewport) {
	first := !n.vp.Valid() && v.Valid()
	n.vp = v
	if first && n.state == Idle {
		n.cam.Y = n.restY(n.current)
	} else {
		n.cam.Y = n.space.ClampY(n.cam.Y, v)
	}
	n.notify()
}

// NavigateToDate moves to date. Animated navigation replaces any running
// transition's target (its velocity is kept) and cancels a drag; otherwise
// the camera jumps and the navigator goes Idle.
func (n *Navigator) NavigateToDate(date time.Time, animated bool) {
	day := n.DayOffset(date)
	y := n.arrivalY(day)
	n.current = day

	target := viewport.Camera{X: float64(day), Y: y, Scale: n.cam.Scale}
	if !animated || n.space.DayWidth(n.vp) <= 0 {
		if n.state == Dragging {
			appLog.Debug("navigator: drag revoked by jump")
		}
		n.anim = nil
		n.cam = target
		n.rest()
		n.setState(Idle)
		appLog.Debug("navigator: jump", "date", DateKey(n.CurrentDate()))
		return
	}
	n.animateTo(target, 0)
	appLog.Debug("navigator: animate", "date", DateKey(n.CurrentDate()))
}

func (n *Navigator) Next()     { n.Page(1) }
func (n *Navigator) Previous() { n.Page(-1) }
func (n *Navigator) Today()    { n.NavigateToDate(n.now(), true) }

// Page moves delta days from the current date, animated.
func (n *Navigator) Page(delta int) {
	n.NavigateToDate(n.DateAt(n.current+delta), true)
}

// BeginDrag hands camera X to a gesture, cancelling any running spring.
func (n *Navigator) BeginDrag() bool {
	if !n.vp.Valid() {
		return false
	}
	n.anim = nil
	n.setState(Dragging)
	return true
}

// MoveCamera moves the camera by dx day widths and dy pixels. It is refused
// while a transition is animating.
func (n *Navigator) MoveCamera(dx, dy float64) bool {
	if n.state == Animating || !n.vp.Valid() {
		return false
	}
	if math.IsNaN(dx) || math.IsNaN(dy) {
		return false
	}
	n.cam.X += dx
	n.cam.Y = n.space.ClampY(n.cam.Y+dy, n.vp)
	if n.state == Idle {
		// An idle horizontal nudge (keyboard, API) still settles on a day.
		n.current = int(math.Round(n.cam.X))
	}
	n.notify()
	return true
}

// Scroll is MoveCamera on the vertical axis only.
func (n *Navigator) Scroll(dy float64) bool {
	return n.MoveCamera(0, dy)
}

// EndDrag settles a drag on the decided day.
func (n *Navigator) EndDrag(d gesture.Decision) {
	if n.state != Dragging {
		return
	}
	y := n.cam.Y
	if d.Target != n.settled || !n.atRest {
		y = n.arrivalY(d.Target)
	}
	n.current = d.Target

	target := viewport.Camera{X: float64(d.Target), Y: y, Scale: n.cam.Scale}
	if target == n.cam {
		n.rest()
		n.setState(Idle)
		return
	}
	n.animateTo(target, d.Velocity)
}

// Step advances the active transition; it is the frame callback.
func (n *Navigator) Step(dt time.Duration) error {
	if n.state != Animating || n.anim == nil {
		return nil
	}
	done := n.anim.Step(dt.Seconds())
	p := n.anim.Current()
	n.cam.X = p.X / n.animUnit
	n.cam.Y = n.space.ClampY(p.Y, n.vp)
	if done {
		n.anim = nil
		n.rest()
		n.setState(Idle)
		return nil
	}
	n.notify()
	return nil
}

// animateTo starts or retargets the single spring. velocity is in days/s.
func (n *Navigator) animateTo(target viewport.Camera, velocity float64) {
	if n.anim == nil {
		unit := n.space.DayWidth(n.vp)
		a, err := spring.New(viewport.Point{X: n.cam.X * unit, Y: n.cam.Y}, viewport.Point{}, n.cfg.Spring)
		if err != nil {
			// Config was validated in New; this only fires on programmer error.
			appLog.Error("navigator: spring rejected", err)
			n.cam = target
			n.setState(Idle)
			return
		}
		n.anim = a
		n.animUnit = unit
		n.anim.SetVelocity(viewport.Point{X: velocity * unit})
	}
	n.anim.SetTarget(viewport.Point{X: target.X * n.animUnit, Y: target.Y})
	n.atRest = false
	n.setState(Animating)
}

func (n *Navigator) setState(s State) {
	if s != n.state {
		appLog.Debug("navigator: state", "from", n.state.String(), "to", s.String())
	}
	n.state = s
	n.notify()
}

// rest marks the camera as settled on the current day.
func (n *Navigator) rest() {
	n.settled = n.current
	n.atRest = true
}

// arrivalY records the scroll of the day being left, if the camera ever
// settled there, and returns where the camera should sit on day.
func (n *Navigator) arrivalY(day int) float64 {
	if n.atRest {
		n.memory.Set(DateKey(n.DateAt(n.settled)), n.cam.Y)
	}
	return n.restY(day)
}

// restY is the remembered offset for day, else the default centre.
func (n *Navigator) restY(day int) float64 {
	if y, ok := n.memory.Get(DateKey(n.DateAt(day))); ok {
		return n.space.ClampY(y, n.vp)
	}
	return n.defaultY(n.DateAt(day))
}

// defaultY centres today on the current time and any other day on the
// middle of working hours.
func (n *Navigator) defaultY(date time.Time) float64 {
	minutes := float64(n.cfg.WorkStart+n.cfg.WorkEnd) / 2
	now := n.now().In(n.loc)
	if DateKey(now) == DateKey(date) {
		minutes = float64(now.Hour()*60 + now.Minute())
	}
	minutes = math.Min(minutes, model.MinutesPerDay)
	y := minutes*n.space.PixelsPerMinute() - n.vp.Height/2
	return n.space.ClampY(y, n.vp)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
