package gesture

import (
	"math"
	"time"
)

// Thresholds tune how a released drag is turned into a page or snap-back.
// Distances along the day axis are fractions of a day width; velocities are
// day widths per second.
type Thresholds struct {
	// Distance is the offset from the starting day beyond which a slow
	// release still pages.
	Distance float64 `yaml:"distance" json:"distance"`
	// Velocity is the release speed beyond which a short drag pages.
	Velocity float64 `yaml:"velocity" json:"velocity"`
	// Momentum scales the release speed handed to the paging spring.
	Momentum float64 `yaml:"momentum" json:"momentum"`
	// VelocityWindow is how much recent movement the release speed is
	// measured over.
	VelocityWindow time.Duration `yaml:"velocity_window" json:"velocity_window"`

	// SwipeDistance (px) and SwipeWindow define a touch swipe: a short fast
	// gesture that pages no matter where the camera sits.
	SwipeDistance float64       `yaml:"swipe_distance" json:"swipe_distance"`
	SwipeWindow   time.Duration `yaml:"swipe_window" json:"swipe_window"`

	// DeadZone (px) is how far a pointer travels before a press becomes a
	// drag and a touch locks to an axis.
	DeadZone float64 `yaml:"dead_zone" json:"dead_zone"`
	// WheelScale multiplies wheel deltas before they move the camera.
	WheelScale float64 `yaml:"wheel_scale" json:"wheel_scale"`
}

var (
	Standard = Thresholds{
		Distance:       0.25,
		Velocity:       0.5,
		Momentum:       1.5,
		VelocityWindow: 100 * time.Millisecond,
		SwipeDistance:  50,
		SwipeWindow:    300 * time.Millisecond,
		DeadZone:       6,
		WheelScale:     1,
	}
	// Sensitive pages on shorter, slower drags; it suits small touch screens.
	Sensitive = Thresholds{
		Distance:       0.15,
		Velocity:       0.3,
		Momentum:       2,
		VelocityWindow: 100 * time.Millisecond,
		SwipeDistance:  30,
		SwipeWindow:    250 * time.Millisecond,
		DeadZone:       4,
		WheelScale:     1,
	}
)

// Preset returns the named thresholds; unknown names yield Standard.
func Preset(name string) Thresholds {
	if name == "sensitive" {
		return Sensitive
	}
	return Standard
}

// Merge fills zero fields of t from base.
func (t Thresholds) Merge(base Thresholds) Thresholds {
	if t.Distance <= 0 {
		t.Distance = base.Distance
	}
	if t.Velocity <= 0 {
		t.Velocity = base.Velocity
	}
	if t.Momentum <= 0 {
		t.Momentum = base.Momentum
	}
	if t.VelocityWindow <= 0 {
		t.VelocityWindow = base.VelocityWindow
	}
	if t.SwipeDistance <= 0 {
		t.SwipeDistance = base.SwipeDistance
	}
	if t.SwipeWindow <= 0 {
		t.SwipeWindow = base.SwipeWindow
	}
	if t.DeadZone <= 0 {
		t.DeadZone = base.DeadZone
	}
	if t.WheelScale == 0 {
		t.WheelScale = base.WheelScale
	}
	return t
}

// Action is what a released gesture asks the navigator to do.
type Action int

const (
	SnapBack Action = iota
	Page
)

func (a Action) String() string {
	if a == Page {
		return "page"
	}
	return "snap"
}

// Decision is the outcome of a released drag or swipe.
type Decision struct {
	Action Action `json:"action"`
	// Direction is +1 for the next day, -1 for the previous one, 0 on
	// snap-back.
	Direction int `json:"direction"`
	Origin    int `json:"origin"`
	// Target is the day index to settle on.
	Target int `json:"target"`
	// Velocity (days/s) seeds the settling spring.
	Velocity float64 `json:"velocity"`
}

// Decide turns a release at camera x with the given speed into a page or
// snap-back. origin is the day the gesture started on. The result depends
// only on its inputs.
func (t Thresholds) Decide(origin int, x, velocity float64) Decision {
	offset := x - float64(origin)
	fast := math.Abs(velocity) > t.Velocity
	far := math.Abs(offset) > t.Distance

	dir := 0
	switch {
	case fast:
		dir = sign(velocity)
		// A flick back toward the starting day after a long drag returns
		// to it rather than paging the other way.
		if far && sign(offset) != dir {
			dir = 0
		}
	case far:
		dir = sign(offset)
	}

	if dir == 0 {
		return Decision{Action: SnapBack, Origin: origin, Target: origin, Velocity: velocity}
	}
	return Decision{
		Action:    Page,
		Direction: dir,
		Origin:    origin,
		Target:    origin + dir,
		Velocity:  velocity * t.Momentum,
	}
}

// PageDecision is an unconditional one-day page, used by swipes.
func (t Thresholds) PageDecision(origin, dir int, velocity float64) Decision {
	return Decision{Action: Page, Direction: dir, Origin: origin, Target: origin + dir, Velocity: velocity * t.Momentum}
}

func sign(f float64) int {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}
