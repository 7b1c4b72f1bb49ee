package model

import (
	"fmt"
	"strings"
)

// MinutesPerDay is the height of the day column in minutes.
const MinutesPerDay = 24 * 60

// Kind tags what a schedule entry represents. The set is closed; anything
// else is rejected at the boundary by ParseKind.
type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
	KindFocus Kind = "focus"
	KindBreak Kind = "break"
)

// Kinds lists every valid Kind in display order.
var Kinds = []Kind{KindEvent, KindTask, KindFocus, KindBreak}

// ParseKind validates a raw kind string. An empty string maps to KindEvent,
// which is what calendar subscriptions produce.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return KindEvent, nil
	}
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("model: unknown kind %q", s)
}

func (k Kind) Valid() bool {
	switch k {
	case KindEvent, KindTask, KindFocus, KindBreak:
		return true
	}
	return false
}

// TimeInterval is one schedule entry on a single day, in minutes since
// local midnight. Start < End, Start >= 0 and End <= MinutesPerDay.
type TimeInterval struct {
	ID    string `json:"id"`
	Start int    `json:"start_minutes"`
	End   int    `json:"end_minutes"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`

	Notes    string `json:"notes,omitempty"`
	Location string `json:"location,omitempty"`
	// Source is the schedule source the entry came from (config ICS ID).
	Source string `json:"source,omitempty"`
}

// Duration returns End-Start in minutes.
func (iv TimeInterval) Duration() int {
	return iv.End - iv.Start
}

// Overlaps reports whether two intervals share any time. Touching
// intervals (a.End == b.Start) do not overlap.
func (iv TimeInterval) Overlaps(o TimeInterval) bool {
	return iv.Start < o.End && iv.End > o.Start
}

// Validate checks the fields the layout engine relies on.
func (iv TimeInterval) Validate() error {
	if strings.TrimSpace(iv.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if !iv.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", iv.Kind)
	}
	if iv.Start < 0 || iv.Start >= MinutesPerDay {
		return fmt.Errorf("start %d outside [0, %d)", iv.Start, MinutesPerDay)
	}
	if iv.End <= iv.Start {
		return fmt.Errorf("end %d not after start %d", iv.End, iv.Start)
	}
	if iv.End > MinutesPerDay {
		return fmt.Errorf("end %d past end of day", iv.End)
	}
	return nil
}

// LayoutInterval is a TimeInterval with its column inside its overlap
// cluster. Column < TotalColumns always holds.
type LayoutInterval struct {
	TimeInterval
	Column       int `json:"column"`
	TotalColumns int `json:"total_columns"`
}

// ValidationWarning describes an interval that was dropped before layout.
type ValidationWarning struct {
	ID     string `json:"id,omitempty"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (w ValidationWarning) String() string {
	if w.ID == "" {
		return fmt.Sprintf("interval #%d dropped: %s", w.Index, w.Reason)
	}
	return fmt.Sprintf("interval %q dropped: %s", w.ID, w.Reason)
}

// ClockString formats minutes since midnight as HH:MM.
func ClockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is allowed
// so an entry can end at midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("model: bad clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("model: clock %q out of range", s)
	}
	return h*60 + m, nil
}
