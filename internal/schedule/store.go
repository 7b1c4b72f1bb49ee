package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "daycanvas/internal/log"
	"daycanvas/internal/model"
)

// Store keeps the last good parse of every source and answers per-day
// interval snapshots. It is safe for concurrent use.
type Store struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location

	mu        sync.RWMutex
	events    map[string][]Event
	refreshed time.Time
	lastErr   error
}

func NewStore(f *Fetcher, sources []Source, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		fetcher: f,
		sources: sources,
		loc:     loc,
		events:  make(map[string][]Event),
	}
}

// Location is the zone days are cut in.
func (s *Store) Location() *time.Location { return s.loc }

// Refresh fetches and parses every source. A source that fails keeps its
// previous events; the joined error reports every failure.
func (s *Store) Refresh(ctx context.Context) error {
	payloads, errs := s.fetcher.FetchAll(ctx, s.sources)

	parsed := make(map[string][]Event, len(payloads))
	for _, p := range payloads {
		evs, err := Parse(p.Source, p.Body)
		if err != nil {
			appLog.Error("schedule: parse failed", err, "id", p.Source.ID)
			errs = append(errs, err)
			continue
		}
		parsed[p.Source.ID] = evs
	}

	s.mu.Lock()
	for id, evs := range parsed {
		s.events[id] = evs
	}
	s.refreshed = time.Now()
	s.lastErr = errors.Join(errs...)
	total := 0
	for _, evs := range s.events {
		total += len(evs)
	}
	s.mu.Unlock()

	appLog.Info("schedule refreshed", "sources", len(s.sources), "ok", len(parsed), "events", total)
	return errors.Join(errs...)
}

// Status reports when Refresh last ran and what it failed on.
func (s *Store) Status() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed, s.lastErr
}

// Events returns a copy of every parsed event.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, src := range s.sources {
		out = append(out, s.events[src.ID]...)
	}
	return out
}

// Day returns the intervals of the day containing date.
func (s *Store) Day(date time.Time) ([]model.TimeInterval, error) {
	from, to := DayBounds(date, s.loc)
	exp, err := Expand(s.Events(), Window{From: from, To: to, Location: s.loc})
	if err != nil {
		return nil, err
	}
	return Clip(exp.Occurrences, date, s.loc), nil
}

// Schedule runs Refresh on the cron spec (standard five fields, in the
// store's zone) until ctx is done.
func (s *Store) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.loc))
	_, err := c.AddFunc(spec, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Warn("schedule: refresh incomplete", "err", err.Error())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: cron spec %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
