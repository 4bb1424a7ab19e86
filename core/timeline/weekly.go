package timeline

import (
	"time"

	"github.com/kilianp07/outages/core/model"
)

// weeklySource repeats the weekly table forever, one day at a time, starting
// from the Monday of the anchor's week.
type weeklySource struct {
	table model.WeeklyTable
	loc   *time.Location
	day   model.Date
	empty bool

	buf []model.Edge
	pos int
}

func newWeeklySource(table model.WeeklyTable, anchor time.Time, loc *time.Location) *weeklySource {
	local := anchor.In(loc)
	monday := model.DateOf(local).AddDays(-model.WeekdayIndex(local.Weekday()))
	return &weeklySource{table: table, loc: loc, day: monday, empty: table.Empty()}
}

// Next never reports exhaustion unless the table is empty.
func (s *weeklySource) Next() (model.Edge, bool) {
	if s.empty {
		return model.Edge{}, false
	}
	for s.pos >= len(s.buf) {
		s.fill()
	}
	e := s.buf[s.pos]
	s.pos++
	return e, true
}

func (s *weeklySource) fill() {
	s.buf = dayEdges(s.buf[:0], s.day, s.table[model.WeekdayIndex(s.day.Weekday())], model.PriorityBase, s.loc)
	s.pos = 0
	sortEdges(s.buf)
	s.day = s.day.AddDays(1)
}
