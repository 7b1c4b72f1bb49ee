package navigator

import (
	"fmt"
	"math"
	"time"
)

// RequestKind names a navigation intent raised by a UI element rather than
// a gesture.
type RequestKind string

const (
	// RequestPage moves Delta days from the current date.
	RequestPage RequestKind = "page"
	// RequestDate moves to Date.
	RequestDate RequestKind = "date"
	// RequestToday moves to today.
	RequestToday RequestKind = "today"
	// RequestSnap settles the camera on the nearest day boundary.
	RequestSnap RequestKind = "snap"
)

// Request is a navigation intent.
type Request struct {
	Kind     RequestKind `json:"kind"`
	Delta    int         `json:"delta,omitempty"`
	Date     time.Time   `json:"date,omitzero"`
	Animated bool        `json:"animated"`
}

// Handle applies r. Snap requests are ignored while dragging; the gesture
// settles the camera itself on release.
func (n *Navigator) Handle(r Request) error {
	switch r.Kind {
	case RequestPage:
		if r.Delta == 0 {
			return fmt.Errorf("navigator: page request with zero delta")
		}
		n.NavigateToDate(n.DateAt(n.current+r.Delta), r.Animated)
	case RequestDate:
		if r.Date.IsZero() {
			return fmt.Errorf("navigator: date request without a date")
		}
		n.NavigateToDate(r.Date, r.Animated)
	case RequestToday:
		n.NavigateToDate(n.now(), r.Animated)
	case RequestSnap:
		if n.state == Dragging {
			return nil
		}
		n.NavigateToDate(n.DateAt(int(math.Round(n.cam.X))), r.Animated)
	default:
		return fmt.Errorf("navigator: unknown request kind %q", r.Kind)
	}
	return nil
}
