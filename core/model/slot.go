package model

import (
	"fmt"
	"time"
)

// MinutesPerDay is the exclusive upper bound of a slot and denotes the next
// local midnight when used as an end minute.
const MinutesPerDay = 24 * 60

// Slot is a half-open time-of-day interval [Start, End) relative to one
// calendar day, expressed in minutes since local midnight.
type Slot struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Label string `json:"label" yaml:"label"`
}

// Validate reports whether the slot bounds are usable.
func (s Slot) Validate() error {
	if s.Start < 0 || s.Start >= MinutesPerDay {
		return fmt.Errorf("slot start %d out of range [0,%d)", s.Start, MinutesPerDay)
	}
	if s.End <= 0 || s.End > MinutesPerDay {
		return fmt.Errorf("slot end %d out of range (0,%d]", s.End, MinutesPerDay)
	}
	if s.Start >= s.End {
		return fmt.Errorf("slot start %d not before end %d", s.Start, s.End)
	}
	if s.Label == "" {
		return fmt.Errorf("slot %d-%d has no label", s.Start, s.End)
	}
	return nil
}

// WeeklyTable holds the base slots for each weekday, Monday first.
type WeeklyTable [7][]Slot

// Empty reports whether no weekday carries a slot.
func (w WeeklyTable) Empty() bool {
	for _, day := range w {
		if len(day) > 0 {
			return false
		}
	}
	return true
}

// Len returns the total number of slots in the table.
func (w WeeklyTable) Len() int {
	n := 0
	for _, day := range w {
		n += len(day)
	}
	return n
}

// WeekdayIndex maps a time.Weekday to the table index (Monday=0..Sunday=6).
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Midnight returns local midnight of the date in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the wall-clock instant minutes after local midnight. Minute
// values past the end of the day roll over into the following day.
func (d Date) At(minutes int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, minutes, 0, 0, loc)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Before reports whether d precedes o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ExceptionDay replaces the weekly schedule for a single date. Overrides are
// keyed by group; a group without entries is blanked for the whole day.
type ExceptionDay struct {
	Date      Date              `json:"date"`
	Title     string            `json:"title"`
	Overrides map[string][]Slot `json:"overrides"`
}
