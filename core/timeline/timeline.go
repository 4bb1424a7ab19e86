package timeline

import (
	"sort"
	"time"

	"github.com/kilianp07/outages/core/model"
)

// Timeline answers point and range queries for one group. It is immutable
// and safe for concurrent use; every query builds its own sources.
type Timeline struct {
	weekly model.WeeklyTable
	days   []model.ExceptionDay
	group  string
	loc    *time.Location
}

// New builds a timeline for group. Exception days are copied and ordered by
// date; for duplicate dates the later entry wins. A nil loc means UTC.
func New(weekly model.WeeklyTable, days []model.ExceptionDay, group string, loc *time.Location) *Timeline {
	if loc == nil {
		loc = time.UTC
	}
	byDate := make(map[model.Date]int, len(days))
	sorted := make([]model.ExceptionDay, 0, len(days))
	for _, d := range days {
		if i, ok := byDate[d.Date]; ok {
			sorted[i] = d
			continue
		}
		byDate[d.Date] = len(sorted)
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return &Timeline{weekly: weekly, days: sorted, group: group, loc: loc}
}

// Group returns the group the timeline resolves.
func (t *Timeline) Group() string { return t.group }

// Location returns the zone wall-clock slots are interpreted in.
func (t *Timeline) Location() *time.Location { return t.loc }

// EventsBetween returns the visible events overlapping [start, end), clipped
// to that window, in ascending order and without overlap. An empty or
// inverted window yields nil.
func (t *Timeline) EventsBetween(start, end time.Time) []model.OutageEvent {
	if !end.After(start) {
		return nil
	}
	weekly := newWeeklySource(t.weekly, start, t.loc)
	exceptions := newExceptionSource(t.days, t.group, start, t.loc)
	return resolve(weekly, exceptions, start, end)
}

// EventAt returns the event active at ts, clipped to start at ts and bounded
// by a one day horizon.
func (t *Timeline) EventAt(ts time.Time) (model.OutageEvent, bool) {
	for _, ev := range t.EventsBetween(ts, ts.AddDate(0, 0, 1)) {
		if ev.Contains(ts) {
			return ev, true
		}
	}
	return model.OutageEvent{}, false
}

// NextEvent returns the first event starting strictly after ts within
// horizon and matching keep. A nil keep accepts every label.
func (t *Timeline) NextEvent(ts time.Time, horizon time.Duration, keep func(label string) bool) (model.OutageEvent, bool) {
	for _, ev := range t.EventsBetween(ts, ts.Add(horizon)) {
		if !ev.Start.After(ts) {
			continue
		}
		if keep == nil || keep(ev.Label) {
			return ev, true
		}
	}
	return model.OutageEvent{}, false
}
