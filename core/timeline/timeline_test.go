package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/outages/core/model"
)

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func mondayOutage() model.WeeklyTable {
	var w model.WeeklyTable
	w[0] = []model.Slot{{Start: 540, End: 600, Label: "outage"}}
	return w
}

func assertWellFormed(t *testing.T, events []model.OutageEvent) {
	t.Helper()
	for i, ev := range events {
		assert.True(t, ev.End.After(ev.Start), "event %d empty: %+v", i, ev)
		assert.NotEqual(t, model.BlankLabel, ev.Label)
		if i > 0 {
			assert.False(t, ev.Start.Before(events[i-1].End), "event %d overlaps previous", i)
		}
	}
}

func TestEventsBetweenSingleBaseSlot(t *testing.T) {
	tl := New(mondayOutage(), nil, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(0, 23, 59))
	require.Len(t, got, 1)
	assert.Equal(t, model.OutageEvent{Start: at(0, 9, 0), End: at(0, 10, 0), Label: "outage"}, got[0])
}

func TestEventsBetweenFullDayOverride(t *testing.T) {
	days := []model.ExceptionDay{{
		Date:      model.DateOf(monday),
		Title:     "maintenance 01.01.2024",
		Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 1440, Label: "maintenance"}}},
	}}
	tl := New(mondayOutage(), days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(1, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, model.OutageEvent{Start: at(0, 0, 0), End: at(1, 0, 0), Label: "maintenance"}, got[0])
}

func TestEventAtGap(t *testing.T) {
	tl := New(mondayOutage(), nil, "1.1", time.UTC)
	_, ok := tl.EventAt(at(0, 11, 0))
	assert.False(t, ok)

	ev, ok := tl.EventAt(at(0, 9, 30))
	require.True(t, ok)
	assert.Equal(t, at(0, 9, 30), ev.Start)
	assert.Equal(t, at(0, 10, 0), ev.End)
}

func TestEventsBetweenRepeatsWeekly(t *testing.T) {
	tl := New(mondayOutage(), nil, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(21, 0, 0))
	require.Len(t, got, 3)
	for i, ev := range got {
		assert.Equal(t, at(7*i, 9, 0), ev.Start)
	}
	assertWellFormed(t, got)
}

func TestEventsBetweenEmptyInputs(t *testing.T) {
	tl := New(model.WeeklyTable{}, nil, "1.1", time.UTC)
	assert.Empty(t, tl.EventsBetween(at(0, 0, 0), at(30, 0, 0)))

	tl = New(mondayOutage(), nil, "1.1", time.UTC)
	assert.Nil(t, tl.EventsBetween(at(1, 0, 0), at(0, 0, 0)))
	assert.Nil(t, tl.EventsBetween(at(1, 0, 0), at(1, 0, 0)))
}

func TestEventsBetweenClipsToWindow(t *testing.T) {
	tl := New(mondayOutage(), nil, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 9, 15), at(0, 9, 45))
	require.Len(t, got, 1)
	assert.Equal(t, at(0, 9, 15), got[0].Start)
	assert.Equal(t, at(0, 9, 45), got[0].End)
}

func TestOverridePrecedence(t *testing.T) {
	var w model.WeeklyTable
	for d := range w {
		w[d] = []model.Slot{{Start: 480, End: 720, Label: "Definite"}}
	}
	days := []model.ExceptionDay{{
		Date:      model.DateOf(at(2, 0, 0)),
		Overrides: map[string][]model.Slot{"1.1": {{Start: 900, End: 960, Label: "Emergency"}}},
	}}
	tl := New(w, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(7, 0, 0))
	assertWellFormed(t, got)

	for _, ev := range got {
		if !ev.Start.Before(at(2, 0, 0)) && ev.Start.Before(at(3, 0, 0)) {
			assert.Equal(t, "Emergency", ev.Label)
			assert.Equal(t, at(2, 15, 0), ev.Start)
			assert.Equal(t, at(2, 16, 0), ev.End)
		}
	}
	assert.Len(t, got, 7)
}

func TestBlankGapsAreNotEmitted(t *testing.T) {
	days := []model.ExceptionDay{{
		Date: model.DateOf(monday),
		Overrides: map[string][]model.Slot{"1.1": {
			{Start: 60, End: 120, Label: "a"},
			{Start: 600, End: 660, Label: "b"},
		}},
	}}
	tl := New(mondayOutage(), days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(1, 0, 0))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Label)
	assert.Equal(t, "b", got[1].Label)
	assert.Equal(t, at(0, 10, 0), got[1].Start)
}

func TestExceptionDayForOtherGroupBlanksBase(t *testing.T) {
	days := []model.ExceptionDay{{
		Date:      model.DateOf(monday),
		Overrides: map[string][]model.Slot{"2.1": {{Start: 0, End: 60, Label: "x"}}},
	}}
	tl := New(mondayOutage(), days, "1.1", time.UTC)
	assert.Empty(t, tl.EventsBetween(at(0, 0, 0), at(1, 0, 0)))
}

func TestWeekRolloverContinuity(t *testing.T) {
	var w model.WeeklyTable
	w[6] = []model.Slot{{Start: 1380, End: 1440, Label: "outage"}}
	w[0] = []model.Slot{{Start: 0, End: 60, Label: "outage"}}
	tl := New(w, nil, "1.1", time.UTC)

	got := tl.EventsBetween(at(6, 0, 0), at(8, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, at(6, 23, 0), got[0].Start)
	assert.Equal(t, at(7, 1, 0), got[0].End)
}

func TestAdjacentDifferentLabelsStaySeparate(t *testing.T) {
	var w model.WeeklyTable
	w[0] = []model.Slot{{Start: 0, End: 60, Label: "Definite"}, {Start: 60, End: 120, Label: "Possible"}}
	tl := New(w, nil, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(1, 0, 0))
	require.Len(t, got, 2)
	assert.Equal(t, got[0].End, got[1].Start)
}

func TestSameLabelJoinsAcrossLayers(t *testing.T) {
	var w model.WeeklyTable
	w[6] = []model.Slot{{Start: 1380, End: 1440, Label: "Definite"}}
	days := []model.ExceptionDay{{
		Date:      model.DateOf(at(7, 0, 0)),
		Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 60, Label: "Definite"}}},
	}}
	tl := New(w, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(6, 0, 0), at(8, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, at(6, 23, 0), got[0].Start)
	assert.Equal(t, at(7, 1, 0), got[0].End)
}

func TestCoverageIdempotence(t *testing.T) {
	var w model.WeeklyTable
	for d := range w {
		w[d] = []model.Slot{{Start: 120, End: 300, Label: "Definite"}, {Start: 1200, End: 1440, Label: "Possible"}}
	}
	days := []model.ExceptionDay{{
		Date:      model.DateOf(at(3, 0, 0)),
		Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 1440, Label: "Emergency"}}},
	}}
	tl := New(w, days, "1.1", time.UTC)

	a, b, c := at(0, 0, 0), at(3, 12, 0), at(9, 0, 0)
	whole := tl.EventsBetween(a, c)
	left := tl.EventsBetween(a, b)
	right := tl.EventsBetween(b, c)
	assertWellFormed(t, whole)

	joined := append(append([]model.OutageEvent{}, left...), right...)
	require.Equal(t, len(whole)+1, len(joined), "exactly one interval is split at the boundary")
	last := left[len(left)-1]
	first := right[0]
	assert.Equal(t, b, last.End)
	assert.Equal(t, b, first.Start)
	assert.Equal(t, last.Label, first.Label)

	merged := append(append([]model.OutageEvent{}, left[:len(left)-1]...), model.OutageEvent{Start: last.Start, End: first.End, Label: last.Label})
	merged = append(merged, right[1:]...)
	assert.Equal(t, whole, merged)
}

func TestDuplicateExceptionDateLastWins(t *testing.T) {
	d := model.DateOf(monday)
	days := []model.ExceptionDay{
		{Date: d, Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 60, Label: "first"}}}},
		{Date: d, Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 60, Label: "second"}}}},
	}
	tl := New(model.WeeklyTable{}, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(1, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Label)
}

func TestUnsortedExceptionDays(t *testing.T) {
	slot := map[string][]model.Slot{"1.1": {{Start: 0, End: 60, Label: "x"}}}
	days := []model.ExceptionDay{
		{Date: model.DateOf(at(4, 0, 0)), Overrides: slot},
		{Date: model.DateOf(at(1, 0, 0)), Overrides: slot},
	}
	tl := New(model.WeeklyTable{}, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(7, 0, 0))
	require.Len(t, got, 2)
	assert.Equal(t, at(1, 0, 0), got[0].Start)
	assert.Equal(t, at(4, 0, 0), got[1].Start)
}

func TestOverrideStartingWithExceptionDayDoesNotDropBlanking(t *testing.T) {
	// Base, blanking and override all open at midnight. The override ends
	// first; the rest of the day must stay blank rather than reveal the base.
	var w model.WeeklyTable
	w[0] = []model.Slot{{Start: 0, End: 720, Label: "base"}}
	days := []model.ExceptionDay{{
		Date:      model.DateOf(monday),
		Overrides: map[string][]model.Slot{"1.1": {{Start: 0, End: 120, Label: "override"}}},
	}}
	tl := New(w, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(1, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, model.OutageEvent{Start: at(0, 0, 0), End: at(0, 2, 0), Label: "override"}, got[0])
}

func TestBaseResumesAfterExceptionDay(t *testing.T) {
	var w model.WeeklyTable
	w[0] = []model.Slot{{Start: 1320, End: 1440, Label: "base"}}
	w[1] = []model.Slot{{Start: 0, End: 120, Label: "base"}}
	days := []model.ExceptionDay{{Date: model.DateOf(monday)}}
	tl := New(w, days, "1.1", time.UTC)
	got := tl.EventsBetween(at(0, 0, 0), at(2, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, model.OutageEvent{Start: at(1, 0, 0), End: at(1, 2, 0), Label: "base"}, got[0])
}

func TestEventsBetweenAnchorMidWeek(t *testing.T) {
	var w model.WeeklyTable
	w[4] = []model.Slot{{Start: 600, End: 660, Label: "fri"}}
	tl := New(w, nil, "1.1", time.UTC)
	got := tl.EventsBetween(at(3, 18, 0), at(5, 0, 0))
	require.Len(t, got, 1)
	assert.Equal(t, at(4, 10, 0), got[0].Start)
}

func TestNextEvent(t *testing.T) {
	var w model.WeeklyTable
	w[0] = []model.Slot{{Start: 540, End: 600, Label: "Possible"}, {Start: 720, End: 780, Label: "Definite"}}
	tl := New(w, nil, "1.1", time.UTC)

	ev, ok := tl.NextEvent(at(0, 0, 0), 24*time.Hour, nil)
	require.True(t, ok)
	assert.Equal(t, "Possible", ev.Label)

	ev, ok = tl.NextEvent(at(0, 0, 0), 24*time.Hour, func(l string) bool { return l == "Definite" })
	require.True(t, ok)
	assert.Equal(t, at(0, 12, 0), ev.Start)

	// An event already in progress is not "next".
	ev, ok = tl.NextEvent(at(0, 9, 30), 24*time.Hour, nil)
	require.True(t, ok)
	assert.Equal(t, "Definite", ev.Label)

	_, ok = tl.NextEvent(at(0, 13, 0), 24*time.Hour, nil)
	assert.False(t, ok)
}

func TestWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-31 is the Sunday clocks move forward in Kyiv.
	var w model.WeeklyTable
	w[6] = []model.Slot{{Start: 600, End: 660, Label: "outage"}}
	tl := New(w, nil, "1.1", loc)
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, loc)
	got := tl.EventsBetween(start, start.AddDate(0, 0, 1))
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].Start.In(loc).Hour())
	assert.Equal(t, 11, got[0].End.In(loc).Hour())
}

func TestSkippedHourSlotProducesNoEvent(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 03:00-04:00 does not exist on 2024-03-31 in Kyiv.
	var w model.WeeklyTable
	w[6] = []model.Slot{
		{Start: 120, End: 180, Label: model.LabelDefinite},
		{Start: 180, End: 240, Label: model.LabelPossible},
		{Start: 1200, End: 1260, Label: model.LabelDefinite},
	}
	tl := New(w, nil, "1.1", loc)
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, loc)
	got := tl.EventsBetween(start, start.AddDate(0, 0, 1))
	require.Len(t, got, 2)
	for _, ev := range got {
		assert.Equal(t, model.LabelDefinite, ev.Label)
	}
	assert.Equal(t, time.Hour, got[0].End.Sub(got[0].Start))
	assert.Equal(t, 20, got[1].Start.In(loc).Hour())
	assert.Equal(t, 21, got[1].End.In(loc).Hour())
}
