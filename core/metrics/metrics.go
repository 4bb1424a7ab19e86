package metrics

import "time"

// RefreshEvent describes one schedule refresh attempt.
type RefreshEvent struct {
	Provider      string
	Success       bool
	Error         string
	Duration      time.Duration
	WeeklySlots   int
	ExceptionDays int
	Groups        int
	Time          time.Time
}

// MetricsSink records refresh outcomes.
type MetricsSink interface {
	RecordRefresh(ev RefreshEvent) error
}

// StateEvent is the derived status of a group at a point in time.
type StateEvent struct {
	Group      string
	State      string
	NextOutage time.Time
	NextPower  time.Time
	Time       time.Time
}

// StateRecorder records derived group states.
type StateRecorder interface {
	RecordState(ev StateEvent) error
}

// QueryEvent captures the cost of a timeline query.
type QueryEvent struct {
	Kind     string
	Group    string
	Events   int
	Duration time.Duration
}

// QueryRecorder records timeline query timings.
type QueryRecorder interface {
	RecordQuery(ev QueryEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRefresh(RefreshEvent) error { return nil }
func (NopSink) RecordState(StateEvent) error     { return nil }
func (NopSink) RecordQuery(QueryEvent) error     { return nil }
