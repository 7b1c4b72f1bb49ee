// Package spring moves a 2D point toward a target with damped spring
// physics. Each axis follows
//
//	a = (stiffness*(target-x) - damping*v) / mass
//
// and is advanced with the closed-form oscillator solution from harmonica,
// so a step never diverges however large dt is.
package spring

import (
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"

	"daycanvas/internal/viewport"
)

const (
	// MaxStep is the largest dt (seconds) a single Step integrates.
	MaxStep = 0.1
	// RestThreshold bounds both displacement and speed at rest.
	RestThreshold = 0.01
)

// Config holds the physical parameters of the spring.
type Config struct {
	Stiffness float64 `yaml:"stiffness" json:"stiffness"`
	Damping   float64 `yaml:"damping" json:"damping"`
	Mass      float64 `yaml:"mass" json:"mass"`
}

var (
	// Default is close to critical damping and settles a day page in
	// roughly half a second.
	Default = Config{Stiffness: 170, Damping: 26, Mass: 1}
	Gentle  = Config{Stiffness: 120, Damping: 22, Mass: 1}
	Snappy  = Config{Stiffness: 300, Damping: 35, Mass: 1}
)

// Preset returns the named configuration; unknown names yield Default.
func Preset(name string) Config {
	switch name {
	case "gentle":
		return Gentle
	case "snappy":
		return Snappy
	default:
		return Default
	}
}

// ConfigError reports a spring configuration that cannot be integrated.
type ConfigError struct {
	Field string
	Value float64
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("spring: invalid %s %v", e.Field, e.Value)
}

// Validate returns a *ConfigError for non-positive mass or stiffness,
// negative damping, or any non-finite value.
func (c Config) Validate() error {
	if !finite(c.Mass) || c.Mass <= 0 {
		return &ConfigError{Field: "mass", Value: c.Mass}
	}
	if !finite(c.Stiffness) || c.Stiffness <= 0 {
		return &ConfigError{Field: "stiffness", Value: c.Stiffness}
	}
	if !finite(c.Damping) || c.Damping < 0 {
		return &ConfigError{Field: "damping", Value: c.Damping}
	}
	return nil
}

// AngularFrequency is sqrt(stiffness/mass).
func (c Config) AngularFrequency() float64 {
	return math.Sqrt(c.Stiffness / c.Mass)
}

// DampingRatio is damping / (2*sqrt(stiffness*mass)); 1 is critical.
func (c Config) DampingRatio() float64 {
	return c.Damping / (2 * math.Sqrt(c.Stiffness*c.Mass))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Animator is a single spring transition. It is not safe for concurrent use.
type Animator struct {
	cfg      Config
	current  viewport.Point
	target   viewport.Point
	velocity viewport.Point

	// coefficients are cached per dt; frame deltas repeat almost always.
	lastDT float64
	coef   harmonica.Spring
}

// New builds an Animator at rest at current, heading for target.
func New(current, target viewport.Point, cfg Config) (*Animator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Animator{cfg: cfg, current: current, target: target}, nil
}

func (a *Animator) Config() Config           { return a.cfg }
func (a *Animator) Current() viewport.Point  { return a.current }
func (a *Animator) Target() viewport.Point   { return a.target }
func (a *Animator) Velocity() viewport.Point { return a.velocity }

// SetTarget redirects the spring. Velocity is kept so the motion bends
// toward the new target instead of restarting.
func (a *Animator) SetTarget(p viewport.Point) {
	a.target = p
}

// SetVelocity seeds the spring, e.g. with the fling speed of a gesture.
func (a *Animator) SetVelocity(v viewport.Point) {
	a.velocity = v
}

// Converged reports whether the spring is at rest on its target.
func (a *Animator) Converged() bool {
	d := a.target.Sub(a.current)
	return math.Abs(d.X) < RestThreshold && math.Abs(d.Y) < RestThreshold &&
		math.Abs(a.velocity.X) < RestThreshold && math.Abs(a.velocity.Y) < RestThreshold
}

// Step advances the spring by dt seconds and reports convergence. dt is
// capped at MaxStep; a non-positive dt leaves the state untouched. Once
// converged the point is placed exactly on the target.
func (a *Animator) Step(dt float64) bool {
	if dt > 0 {
		if dt > MaxStep {
			dt = MaxStep
		}
		if dt != a.lastDT {
			a.coef = harmonica.NewSpring(dt, a.cfg.AngularFrequency(), a.cfg.DampingRatio())
			a.lastDT = dt
		}
		a.current.X, a.velocity.X = a.coef.Update(a.current.X, a.velocity.X, a.target.X)
		a.current.Y, a.velocity.Y = a.coef.Update(a.current.Y, a.velocity.Y, a.target.Y)
	}
	if a.Converged() {
		a.current = a.target
		a.velocity = viewport.Point{}
		return true
	}
	return false
}
