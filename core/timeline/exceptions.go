package timeline

import (
	"time"

	"github.com/kilianp07/outages/core/model"
)

// exceptionSource walks the exception days in date order. Each day yields a
// full-day blanking pair plus the group's override slots.
type exceptionSource struct {
	days  []model.ExceptionDay
	group string
	loc   *time.Location
	idx   int

	buf []model.Edge
	pos int
}

// newExceptionSource expects days sorted by date. Days ending before the
// Monday of the anchor's week can never reach the window and are skipped.
func newExceptionSource(days []model.ExceptionDay, group string, anchor time.Time, loc *time.Location) *exceptionSource {
	local := anchor.In(loc)
	monday := model.DateOf(local).AddDays(-model.WeekdayIndex(local.Weekday()))
	idx := 0
	for idx < len(days) && days[idx].Date.Before(monday) {
		idx++
	}
	return &exceptionSource{days: days, group: group, loc: loc, idx: idx}
}

func (s *exceptionSource) Next() (model.Edge, bool) {
	for s.pos >= len(s.buf) {
		if s.idx >= len(s.days) {
			return model.Edge{}, false
		}
		s.fill(s.days[s.idx])
		s.idx++
	}
	e := s.buf[s.pos]
	s.pos++
	return e, true
}

func (s *exceptionSource) fill(day model.ExceptionDay) {
	blank := []model.Slot{{Start: 0, End: model.MinutesPerDay, Label: model.BlankLabel}}
	s.buf = dayEdges(s.buf[:0], day.Date, blank, model.PriorityBlank, s.loc)
	s.buf = dayEdges(s.buf, day.Date, day.Overrides[s.group], model.PriorityOverride, s.loc)
	s.pos = 0
	sortEdges(s.buf)
}
