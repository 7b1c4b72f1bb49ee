package schedule

import (
	"time"

	"daycanvas/internal/model"
)

// DayBounds returns local midnight of date and of the following day.
func DayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Clip converts occurrences into intervals of the day containing date.
// All-day entries and instances that do not touch the day are skipped;
// multi-day instances are cut at the day edges, so one that runs past
// midnight ends at minute 1440.
func Clip(occs []Occurrence, date time.Time, loc *time.Location) []model.TimeInterval {
	dayStart, dayEnd := DayBounds(date, loc)
	out := make([]model.TimeInterval, 0, len(occs))
	for _, o := range occs {
		if o.Event.AllDay {
			continue
		}
		s, e := o.Start, o.End
		if s.Before(dayStart) {
			s = dayStart
		}
		if e.After(dayEnd) {
			e = dayEnd
		}
		if !e.After(s) {
			continue
		}
		start := minutesFrom(dayStart, s)
		end := model.MinutesPerDay
		if e.Before(dayEnd) {
			end = minutesFrom(dayStart, e)
		}
		if end <= start {
			// Sub-minute remnant at a day edge.
			continue
		}
		kind := o.Event.Kind
		if !kind.Valid() {
			kind = model.KindEvent
		}
		out = append(out, model.TimeInterval{
			ID:       o.Key(),
			Start:    start,
			End:      end,
			Kind:     kind,
			Title:    o.Event.Summary,
			Notes:    o.Event.Description,
			Location: o.Event.Location,
			Source:   o.Event.Source.ID,
		})
	}
	return out
}

// minutesFrom uses wall-clock fields so a DST day still maps 09:00 to 540.
func minutesFrom(dayStart, t time.Time) int {
	t = t.In(dayStart.Location())
	if t.YearDay() != dayStart.YearDay() || t.Year() != dayStart.Year() {
		return model.MinutesPerDay
	}
	return t.Hour()*60 + t.Minute()
}
