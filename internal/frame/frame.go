// Package frame runs per-frame callbacks off the host's animation-frame
// source. The host calls Tick for every frame it draws (or uses Run when it
// has no frame primitive of its own); callbacks fire about once per target
// frame interval, in registration order.
package frame

import (
	"context"
	"fmt"
	"sync"
	"time"

	appLog "daycanvas/internal/log"
)

const (
	DefaultFPS = 60
	// DefaultMaxDelta caps the delta handed to callbacks so a backgrounded
	// host does not hand the springs one giant step.
	DefaultMaxDelta = 100 * time.Millisecond
)

// Callback is invoked once per frame with the elapsed time since the
// previous invocation. A returned error is logged; it never stops the loop.
type Callback func(dt time.Duration) error

type entry struct {
	id uint64
	fn Callback
}

// Scheduler is not safe for concurrent use; hosts call it from their event
// loop.
type Scheduler struct {
	interval time.Duration
	maxDelta time.Duration
	now      func() time.Time

	callbacks []entry
	nextID    uint64

	running  bool
	lastRun  time.Time
	onRender func()
	frames   uint64

	lock sync.Locker
}

type Option func(*Scheduler)

// WithFPS sets the target callback rate.
func WithFPS(fps int) Option {
	return func(s *Scheduler) {
		if fps > 0 {
			s.interval = time.Second / time.Duration(fps)
		}
	}
}

// WithMaxDelta overrides the per-frame delta cap.
func WithMaxDelta(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxDelta = d
		}
	}
}

// WithClock injects the time source used by Run.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocker makes Run hold l around every Tick, for hosts that also touch
// the animated state from other goroutines.
func WithLocker(l sync.Locker) Option {
	return func(s *Scheduler) { s.lock = l }
}

// WithRender sets the hook signalled after each frame that ran callbacks.
func WithRender(fn func()) Option {
	return func(s *Scheduler) { s.onRender = fn }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: time.Second / DefaultFPS,
		maxDelta: DefaultMaxDelta,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Interval is the target frame interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Frames counts frames that ran callbacks since creation.
func (s *Scheduler) Frames() uint64 { return s.frames }

// OnRender replaces the render hook.
func (s *Scheduler) OnRender(fn func()) { s.onRender = fn }

// AddCallback registers fn and returns a func that removes it. Removing
// twice is harmless.
func (s *Scheduler) AddCallback(fn Callback) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.callbacks = append(s.callbacks, entry{id: id, fn: fn})
	return func() { s.remove(id) }
}

func (s *Scheduler) remove(id uint64) {
	for i := range s.callbacks {
		if s.callbacks[i].id == id {
			// Copy instead of reslicing in place so a Tick iterating the
			// old slice is unaffected.
			next := make([]entry, 0, len(s.callbacks)-1)
			next = append(next, s.callbacks[:i]...)
			s.callbacks = append(next, s.callbacks[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered callbacks.
func (s *Scheduler) Len() int { return len(s.callbacks) }

// Start arms the scheduler; the next Tick only records its timestamp.
func (s *Scheduler) Start() {
	if s.running {
		return
	}
	s.running = true
	s.lastRun = time.Time{}
}

// Stop disarms the scheduler. Ticks are ignored until Start.
func (s *Scheduler) Stop() {
	s.running = false
}

func (s *Scheduler) Running() bool { return s.running }

// Tick is called by the host for every animation frame. It reports whether
// callbacks ran.
func (s *Scheduler) Tick(now time.Time) bool {
	if !s.running {
		return false
	}
	if s.lastRun.IsZero() {
		s.lastRun = now
		return false
	}

	// A quarter interval of slack absorbs ticker jitter; without it a
	// source running at exactly the frame rate loses every other frame.
	elapsed := now.Sub(s.lastRun)
	if elapsed < s.interval-s.interval/4 {
		return false
	}
	s.lastRun = now

	dt := elapsed
	if dt > s.maxDelta {
		dt = s.maxDelta
	}

	for _, e := range s.callbacks {
		s.invoke(e, dt)
	}
	s.frames++
	if s.onRender != nil {
		s.onRender()
	}
	return true
}

func (s *Scheduler) invoke(e entry, dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			appLog.Error("frame callback panicked", fmt.Errorf("%v", r), "callback", e.id)
		}
	}()
	if err := e.fn(dt); err != nil {
		appLog.Error("frame callback failed", err, "callback", e.id)
	}
}

// Run drives Tick from a ticker at the frame interval until ctx is done.
// Hosts with their own frame source call Tick directly instead.
func (s *Scheduler) Run(ctx context.Context) error {
	lock := s.lock
	if lock == nil {
		lock = noLock{}
	}

	lock.Lock()
	s.Start()
	s.Tick(s.now())
	lock.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lock.Lock()
			s.Stop()
			lock.Unlock()
			return ctx.Err()
		case <-ticker.C:
			lock.Lock()
			s.Tick(s.now())
			lock.Unlock()
		}
	}
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}
