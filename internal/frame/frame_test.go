package frame

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestTickRespectsFrameInterval(t *testing.T) {
	s := New(WithFPS(60))
	var calls []time.Duration
	s.AddCallback(func(dt time.Duration) error {
		calls = append(calls, dt)
		return nil
	})
	s.Start()

	if s.Tick(t0) {
		t.Fatal("first tick only primes the clock")
	}
	if s.Tick(t0.Add(10 * time.Millisecond)) {
		t.Fatal("tick before the frame interval must not run callbacks")
	}
	if !s.Tick(t0.Add(20 * time.Millisecond)) {
		t.Fatal("tick after the frame interval must run callbacks")
	}
	if len(calls) != 1 || calls[0] != 20*time.Millisecond {
		t.Fatalf("calls = %v, want [20ms]", calls)
	}
}

func TestDeltaIsCapped(t *testing.T) {
	s := New()
	var got time.Duration
	s.AddCallback(func(dt time.Duration) error { got = dt; return nil })
	s.Start()
	s.Tick(t0)
	s.Tick(t0.Add(5 * time.Second))
	if got != DefaultMaxDelta {
		t.Fatalf("dt = %v, want %v", got, DefaultMaxDelta)
	}
}

func TestStoppedSchedulerIgnoresTicks(t *testing.T) {
	s := New()
	n := 0
	s.AddCallback(func(time.Duration) error { n++; return nil })
	s.Tick(t0)
	s.Tick(t0.Add(time.Second))
	if n != 0 {
		t.Fatal("callbacks ran before Start")
	}
	s.Start()
	s.Tick(t0.Add(2 * time.Second))
	s.Tick(t0.Add(3 * time.Second))
	s.Stop()
	s.Tick(t0.Add(4 * time.Second))
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
}

func TestCallbackOrderAndIsolation(t *testing.T) {
	s := New()
	var order []string
	s.AddCallback(func(time.Duration) error { order = append(order, "a"); return errors.New("a failed") })
	s.AddCallback(func(time.Duration) error { panic("b exploded") })
	s.AddCallback(func(time.Duration) error { order = append(order, "c"); return nil })

	renders := 0
	s.OnRender(func() { renders++ })
	s.Start()
	s.Tick(t0)
	s.Tick(t0.Add(20 * time.Millisecond))
	s.Tick(t0.Add(40 * time.Millisecond))

	if len(order) != 4 || order[0] != "a" || order[1] != "c" || order[2] != "a" || order[3] != "c" {
		t.Fatalf("order = %v", order)
	}
	if renders != 2 || s.Frames() != 2 {
		t.Fatalf("renders = %d frames = %d, want 2", renders, s.Frames())
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	n := 0
	unsub := s.AddCallback(func(time.Duration) error { n++; return nil })
	var self func()
	self = s.AddCallback(func(time.Duration) error { self(); return nil })
	s.Start()
	s.Tick(t0)
	s.Tick(t0.Add(time.Second))
	if s.Len() != 1 {
		t.Fatalf("self-removing callback still registered, len=%d", s.Len())
	}
	unsub()
	unsub()
	s.Tick(t0.Add(2 * time.Second))
	if n != 1 || s.Len() != 0 {
		t.Fatalf("n=%d len=%d", n, s.Len())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(WithFPS(200))
	var n atomic.Int32
	s.AddCallback(func(time.Duration) error { n.Add(1); return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v", err)
	}
	if s.Running() {
		t.Fatal("scheduler still running after Run returned")
	}
	if n.Load() == 0 {
		t.Fatal("Run never invoked callbacks")
	}
}

func TestTickToleratesJitter(t *testing.T) {
	s := New(WithFPS(60))
	n := 0
	s.AddCallback(func(time.Duration) error { n++; return nil })
	s.Start()

	// A 60Hz source arriving alternately a little early and a little late.
	at := t0
	s.Tick(at)
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			at = at.Add(15 * time.Millisecond)
		} else {
			at = at.Add(18 * time.Millisecond)
		}
		s.Tick(at)
	}
	if n != 60 {
		t.Fatalf("callbacks = %d, want 60", n)
	}
}

func TestRunKeepsFrameRate(t *testing.T) {
	if testing.Short() {
		t.Skip("real-time test")
	}
	s := New(WithFPS(60))
	var n atomic.Int32
	s.AddCallback(func(time.Duration) error { n.Add(1); return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = s.Run(ctx)

	// 30 frames fit in 500ms; dropping every other tick would give ~15.
	if got := n.Load(); got < 22 || got > 31 {
		t.Fatalf("frames in 500ms = %d, want about 30", got)
	}
}
