// Package status derives the sensor values published for a group from its
// resolved timeline: the current state, the next outages and the next time
// power returns after the current or upcoming outage.
package status

import (
	"time"

	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/timeline"
)

// State is the connectivity state of a group at an instant.
type State string

const (
	StateNormal    State = "normal"
	StateOutage    State = "outage"
	StatePossible  State = "possible"
	StateEmergency State = "emergency"
)

// DefaultHorizon bounds how far ahead the next events are searched.
const DefaultHorizon = 7 * 24 * time.Hour

// StateOf maps an event label to a state.
func StateOf(label string) State {
	switch label {
	case model.LabelPossible:
		return StatePossible
	case model.LabelEmergency:
		return StateEmergency
	default:
		return StateOutage
	}
}

// Status is the derived view of one group.
type Status struct {
	Group             string             `json:"group"`
	At                time.Time          `json:"at"`
	State             State              `json:"state"`
	Current           *model.OutageEvent `json:"current,omitempty"`
	NextOutage        *model.OutageEvent `json:"next_outage,omitempty"`
	NextPossible      *model.OutageEvent `json:"next_possible,omitempty"`
	NextConnectivity  *time.Time         `json:"next_connectivity,omitempty"`
	ScheduleUpdatedOn *time.Time         `json:"schedule_updated_on,omitempty"`
	ScheduleFetchedAt *time.Time         `json:"schedule_fetched_at,omitempty"`
}

// Derive computes the status of tl's group at now. Events further than
// horizon away are ignored; a non-positive horizon means DefaultHorizon.
func Derive(tl *timeline.Timeline, now time.Time, horizon time.Duration) Status {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	st := Status{Group: tl.Group(), At: now, State: StateNormal}
	events := tl.EventsBetween(now, now.Add(horizon))

	for i := range events {
		ev := events[i]
		if ev.Contains(now) {
			st.Current = &ev
			st.State = StateOf(ev.Label)
			continue
		}
		if !ev.Start.After(now) {
			continue
		}
		switch StateOf(ev.Label) {
		case StatePossible:
			if st.NextPossible == nil {
				st.NextPossible = &ev
			}
		default:
			if st.NextOutage == nil {
				st.NextOutage = &ev
			}
		}
	}

	switch {
	case st.Current != nil && st.State != StatePossible:
		end := blockEnd(events, st.Current.End)
		st.NextConnectivity = &end
	case st.NextOutage != nil:
		end := blockEnd(events, st.NextOutage.End)
		st.NextConnectivity = &end
	}
	return st
}

// WithSchedule stamps the schedule timestamps, skipping zero values.
func (s Status) WithSchedule(updatedOn, fetchedAt time.Time) Status {
	if !updatedOn.IsZero() {
		s.ScheduleUpdatedOn = &updatedOn
	}
	if !fetchedAt.IsZero() {
		s.ScheduleFetchedAt = &fetchedAt
	}
	return s
}

// blockEnd follows back-to-back outages starting at end and returns the
// instant power is expected back. Possible outages do not extend the block.
func blockEnd(events []model.OutageEvent, end time.Time) time.Time {
	for _, ev := range events {
		if ev.Start.Equal(end) && StateOf(ev.Label) != StatePossible {
			end = ev.End
		}
	}
	return end
}
