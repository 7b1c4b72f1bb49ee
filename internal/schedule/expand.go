package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "daycanvas/internal/log"
)

const defaultMaxPerEvent = 5000

// Occurrence is one concrete instance of an Event.
type Occurrence struct {
	Event Event
	Start time.Time
	End   time.Time
}

// Key identifies the instance across refreshes.
func (o Occurrence) Key() string {
	return fmt.Sprintf("%s:%s@%s", o.Event.Source.ID, o.Event.UID, o.Start.UTC().Format("20060102T150405Z"))
}

// Window bounds an expansion. Occurrences overlapping [From, To) are kept.
type Window struct {
	From time.Time
	To   time.Time
	// Location converts every occurrence; nil means time.Local.
	Location *time.Location
	// MaxPerEvent caps one series; zero means 5000.
	MaxPerEvent int
}

// Expansion is the outcome of Expand.
type Expansion struct {
	Occurrences []Occurrence
	// Truncated lists UIDs whose series hit MaxPerEvent.
	Truncated []string
}

var ErrBadWindow = errors.New("schedule: window ends before it starts")

// Expand turns events into occurrences inside w, applying RRULE, EXDATE
// and RECURRENCE-ID overrides. Output is sorted by start then key.
func Expand(events []Event, w Window) (Expansion, error) {
	var out Expansion
	if w.To.Before(w.From) {
		return out, ErrBadWindow
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxPerEvent
	}

	series := make(map[string][]Event)
	overrides := make(map[string][]Event)
	var order []string
	for _, ev := range events {
		key := ev.Source.ID + "\x00" + ev.UID
		if ev.Override() {
			overrides[key] = append(overrides[key], ev)
			continue
		}
		if _, ok := series[key]; !ok {
			order = append(order, key)
		}
		series[key] = append(series[key], ev)
	}

	for _, key := range order {
		for _, ev := range series[key] {
			occ, capped := expandOne(ev, overrides[key], w)
			if capped {
				out.Truncated = append(out.Truncated, ev.UID)
				appLog.Warn("schedule: series truncated", "uid", ev.UID, "cap", w.MaxPerEvent)
			}
			out.Occurrences = append(out.Occurrences, occ...)
		}
	}

	sort.SliceStable(out.Occurrences, func(i, j int) bool {
		a, b := out.Occurrences[i], out.Occurrences[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Key() < b.Key()
	})
	return out, nil
}

func expandOne(ev Event, overrides []Event, w Window) ([]Occurrence, bool) {
	if ev.RRule == "" {
		start, end, src := ev.Start, ev.End, ev
		if o, ok := matchOverride(overrides, start); ok {
			start, end, src = o.Start, o.End, o
		}
		if !overlaps(start, end, w.From, w.To) {
			return nil, false
		}
		return []Occurrence{occurrence(src, start, end, w.Location)}, false
	}

	opt, err := rrule.StrToROption(ev.RRule)
	if err != nil {
		appLog.Error("schedule: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Error("schedule: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Pull the window back by the event length so an instance that starts
	// before From but runs into it is still found.
	length := ev.End.Sub(ev.Start)
	from := w.From.Add(-length).In(ev.Start.Location())
	to := w.To.In(ev.Start.Location())
	starts := set.Between(from, to, true)

	capped := false
	if len(starts) > w.MaxPerEvent {
		starts = starts[:w.MaxPerEvent]
		capped = true
	}

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		e := s.Add(length)
		if ev.AllDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			e = s.AddDate(0, 0, 1)
		}
		src := ev
		if o, ok := matchOverride(overrides, s); ok {
			s, e, src = o.Start, o.End, o
		}
		if !overlaps(s, e, w.From, w.To) {
			continue
		}
		out = append(out, occurrence(src, s, e, w.Location))
	}
	return out, capped
}

func matchOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

func occurrence(ev Event, start, end time.Time, loc *time.Location) Occurrence {
	return Occurrence{Event: ev, Start: start.In(loc), End: end.In(loc)}
}

// overlaps treats a zero-length occurrence at From as inside the window.
func overlaps(start, end, from, to time.Time) bool {
	if end.Equal(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}
