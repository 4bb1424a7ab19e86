package schedule

import "time"

// Day statuses published alongside planned daily schedules.
const (
	StatusScheduleApplies    = "ScheduleApplies"
	StatusEmergencyShutdowns = "EmergencyShutdowns"
	StatusWaitingForSchedule = "WaitingForSchedule"
)

// RawSlot is a slot exactly as published upstream.
type RawSlot struct {
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
	Type  string `json:"type" yaml:"type"`
}

// RawException is a date-specific record. The date is carried in Title as
// D.M.Y. Status, when present, is keyed by group and decides whether the
// group's slots apply.
type RawException struct {
	Title  string               `json:"title" yaml:"title"`
	Groups map[string][]RawSlot `json:"groups" yaml:"groups"`
	Status map[string]string    `json:"status,omitempty" yaml:"status,omitempty"`
}

// RawSchedule is everything a provider returns from one fetch. Weekly is
// keyed by group, Monday first.
type RawSchedule struct {
	Weekly     map[string][7][]RawSlot `json:"weekly" yaml:"weekly"`
	Exceptions []RawException          `json:"exceptions" yaml:"exceptions"`
	UpdatedOn  time.Time               `json:"updated_on,omitempty" yaml:"updated_on,omitempty"`
}

// Empty reports whether the fetch carried nothing usable.
func (r RawSchedule) Empty() bool {
	return len(r.Weekly) == 0 && len(r.Exceptions) == 0
}
