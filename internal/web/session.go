package web

import (
	"context"
	"sync"

	"daycanvas/internal/frame"
	"daycanvas/internal/gesture"
	"daycanvas/internal/navigator"
)

// Session is the one navigator a server drives. HTTP handlers and the
// frame loop run on different goroutines, so every access goes through mu.
type Session struct {
	mu       sync.Mutex
	nav      *navigator.Navigator
	gestures *gesture.Controller
	frames   *frame.Scheduler
	version  uint64
}

// NewSession wires a navigator to a gesture controller and a frame
// scheduler that steps it under the session lock.
func NewSession(nav *navigator.Navigator, th gesture.Thresholds, opts ...frame.Option) *Session {
	s := &Session{nav: nav}
	s.gestures = gesture.New(nav, th)
	s.frames = frame.New(append(opts, frame.WithLocker(&s.mu))...)
	nav.Attach(s.frames)
	nav.Subscribe(func(navigator.Snapshot) { s.version++ })
	return s
}

// Run drives animation frames until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.frames.Run(ctx)
}

// Do runs fn with exclusive access to the navigator and its gestures.
func (s *Session) Do(fn func(n *navigator.Navigator, g *gesture.Controller)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.nav, s.gestures)
}

// Snapshot returns the navigator state and a counter that grows with every
// change, for cheap client polling.
func (s *Session) Snapshot() (navigator.Snapshot, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Snapshot(), s.version
}
