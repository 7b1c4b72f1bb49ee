package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daycanvas/internal/log"
	"daycanvas/internal/model"
)

// Event is one VEVENT before recurrence expansion.
type Event struct {
	Source Source

	UID      string
	Sequence int

	Summary     string
	Description string
	Location    string
	Kind        model.Kind

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on a VEVENT that overrides one instance of a
	// recurring series.
	RecurrenceID *time.Time
}

// Override reports whether ev replaces an instance of a series.
func (ev Event) Override() bool { return ev.RecurrenceID != nil }

var ErrEmptyBody = errors.New("schedule: empty calendar body")

// Parse decodes an ICS payload. A malformed VEVENT is logged and skipped;
// only an unreadable calendar fails the call.
func Parse(src Source, body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("schedule: parse %s: %w", src.ID, err)
	}

	var events []Event
	for _, ve := range cal.Events() {
		ev, err := parseEvent(src, ve)
		if err != nil {
			appLog.Warn("schedule: skipping vevent", "id", src.ID, "reason", err.Error())
			continue
		}
		events = append(events, ev)
	}
	appLog.Debug("schedule: parsed", "id", src.ID, "events", len(events))
	return events, nil
}

func prop(ve *ical.VEvent, p ical.ComponentProperty) string {
	if v := ve.GetProperty(p); v != nil {
		return v.Value
	}
	return ""
}

func param(p *ical.IANAProperty, name string) string {
	if p == nil || p.ICalParameters == nil {
		return ""
	}
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func parseEvent(src Source, ve *ical.VEvent) (Event, error) {
	ev := Event{
		Source:      src,
		UID:         strings.TrimSpace(prop(ve, ical.ComponentPropertyUniqueId)),
		Summary:     prop(ve, ical.ComponentPropertySummary),
		Description: prop(ve, ical.ComponentPropertyDescription),
		Location:    prop(ve, ical.ComponentPropertyLocation),
		RRule:       prop(ve, ical.ComponentPropertyRrule),
	}
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}
	if n, err := strconv.Atoi(strings.TrimSpace(prop(ve, ical.ComponentPropertySequence))); err == nil {
		ev.Sequence = n
	}
	ev.Kind = eventKind(src, prop(ve, ical.ComponentPropertyCategories))

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	ev.AllDay = strings.EqualFold(param(dtStart, "VALUE"), "DATE") || !strings.Contains(dtStart.Value, "T")

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("DTSTART: %w", err)
	}
	ev.Start = start
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		ev.End = end
	} else if ev.AllDay {
		ev.End = start.AddDate(0, 0, 1)
	} else {
		ev.End = start
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := zoneOf(param(p, "TZID"), ev.Start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseStamp(part, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); rid != nil {
		loc := zoneOf(param(rid, "TZID"), ev.Start.Location())
		if t, err := parseStamp(rid.Value, loc); err == nil {
			ev.RecurrenceID = &t
		}
	}
	return ev, nil
}

// eventKind takes the source override, else the first CATEGORIES value
// naming a known kind, else KindEvent.
func eventKind(src Source, categories string) model.Kind {
	if k, err := model.ParseKind(src.Kind); err == nil && src.Kind != "" {
		return k
	}
	for _, c := range strings.Split(categories, ",") {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if k, err := model.ParseKind(c); err == nil {
			return k
		}
	}
	return model.KindEvent
}

func zoneOf(tzid string, fallback *time.Location) *time.Location {
	if tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}

// parseStamp reads DATE-TIME (UTC or floating) and DATE values.
func parseStamp(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
