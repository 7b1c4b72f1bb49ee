package spring

import (
	"errors"
	"math"
	"testing"

	"daycanvas/internal/viewport"
)

func TestNewRejectsDegenerateConfig(t *testing.T) {
	bad := []Config{
		{Stiffness: 170, Damping: 26, Mass: 0},
		{Stiffness: 170, Damping: 26, Mass: -1},
		{Stiffness: 0, Damping: 26, Mass: 1},
		{Stiffness: 170, Damping: -1, Mass: 1},
		{Stiffness: math.NaN(), Damping: 26, Mass: 1},
		{Stiffness: 170, Damping: 26, Mass: math.Inf(1)},
	}
	for _, cfg := range bad {
		a, err := New(viewport.Point{}, viewport.Point{X: 1}, cfg)
		if a != nil {
			t.Fatalf("config %+v: expected nil animator", cfg)
		}
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("config %+v: expected *ConfigError, got %v", cfg, err)
		}
	}
}

func TestConvergesWithinBoundedSteps(t *testing.T) {
	distances := []float64{0.5, 1, 400, 1e4, -2500}
	configs := []Config{Default, Gentle, Snappy, {Stiffness: 50, Damping: 2, Mass: 3}}
	dts := []float64{1.0 / 120, 1.0 / 60, 0.05, 0.1}

	for _, cfg := range configs {
		for _, d := range distances {
			for _, dt := range dts {
				a, err := New(viewport.Point{}, viewport.Point{X: d, Y: -d / 2}, cfg)
				if err != nil {
					t.Fatal(err)
				}
				steps := 0
				for !a.Step(dt) {
					steps++
					if steps > 20000 {
						t.Fatalf("cfg %+v d=%v dt=%v: not converged, at %+v", cfg, d, dt, a.Current())
					}
					c := a.Current()
					if math.IsNaN(c.X) || math.Abs(c.X) > 10*math.Abs(d)+1 {
						t.Fatalf("cfg %+v d=%v dt=%v: diverged to %+v", cfg, d, dt, c)
					}
				}
				if a.Current() != a.Target() || a.Velocity() != (viewport.Point{}) {
					t.Fatalf("converged spring not at rest on target: %+v v=%+v", a.Current(), a.Velocity())
				}
			}
		}
	}
}

func TestLargeDeltaIsCapped(t *testing.T) {
	capped, _ := New(viewport.Point{}, viewport.Point{X: 100}, Default)
	ref, _ := New(viewport.Point{}, viewport.Point{X: 100}, Default)

	capped.Step(5)
	ref.Step(MaxStep)
	if capped.Current() != ref.Current() {
		t.Fatalf("dt above MaxStep should integrate as MaxStep: %+v vs %+v", capped.Current(), ref.Current())
	}
}

func TestZeroDeltaIsNoop(t *testing.T) {
	a, _ := New(viewport.Point{X: 3}, viewport.Point{X: 10}, Default)
	if a.Step(0) {
		t.Fatal("unmoved spring reported convergence")
	}
	if a.Current().X != 3 {
		t.Fatalf("Step(0) moved the spring to %+v", a.Current())
	}
}

func TestSetTargetKeepsVelocity(t *testing.T) {
	a, _ := New(viewport.Point{}, viewport.Point{X: 100}, Default)
	for i := 0; i < 5; i++ {
		a.Step(1.0 / 60)
	}
	v := a.Velocity()
	if v.X <= 0 {
		t.Fatalf("expected positive velocity, got %+v", v)
	}
	a.SetTarget(viewport.Point{X: -100})
	if a.Velocity() != v {
		t.Fatal("SetTarget must not reset velocity")
	}
	before := a.Current().X
	a.Step(1.0 / 60)
	if a.Current().X <= before {
		t.Fatal("momentum should carry the point forward for one frame after a redirect")
	}
}

func TestPresetAndRatios(t *testing.T) {
	if Preset("nope") != Default || Preset("snappy") != Snappy {
		t.Fatal("unexpected preset mapping")
	}
	c := Config{Stiffness: 100, Damping: 20, Mass: 1}
	if c.AngularFrequency() != 10 || c.DampingRatio() != 1 {
		t.Fatalf("omega=%v zeta=%v", c.AngularFrequency(), c.DampingRatio())
	}
}
