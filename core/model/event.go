package model

import (
	"fmt"
	"time"
)

// BlankLabel marks the exception-day layer that hides the weekly schedule.
// Intervals carrying it are never returned to callers.
const BlankLabel = "none"

// Priority orders the schedule layers; higher values win on overlap.
type Priority int

const (
	PriorityBase     Priority = 1
	PriorityBlank    Priority = 2
	PriorityOverride Priority = 3

	// MaxPriority is the number of layers.
	MaxPriority = int(PriorityOverride)
)

func (p Priority) String() string {
	switch p {
	case PriorityBase:
		return "base"
	case PriorityBlank:
		return "blank"
	case PriorityOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Action distinguishes the two kinds of edges.
type Action int

const (
	ActionOpen Action = iota
	ActionClose
)

func (a Action) String() string {
	if a == ActionOpen {
		return "open"
	}
	return "close"
}

// Edge is a boundary of a schedule interval at a concrete instant.
type Edge struct {
	At       time.Time
	Priority Priority
	Action   Action
	Label    string
}

func (e Edge) String() string {
	return fmt.Sprintf("%s %s p%d %q", e.At.Format(time.RFC3339), e.Action, e.Priority, e.Label)
}

// OutageEvent is a resolved interval [Start, End).
type OutageEvent struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether t falls inside the half-open interval.
func (e OutageEvent) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Duration returns the length of the event.
func (e OutageEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Slot types published by the upstream operators.
const (
	LabelDefinite   = "Definite"
	LabelPossible   = "Possible"
	LabelEmergency  = "Emergency"
	LabelNotPlanned = "NotPlanned"
)
