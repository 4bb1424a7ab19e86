package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/timeline"
)

// Snapshot is one parsed fetch. It is never modified after construction.
type Snapshot struct {
	Provider   string                       `json:"provider"`
	Weekly     map[string]model.WeeklyTable `json:"weekly"`
	Exceptions []model.ExceptionDay         `json:"exceptions"`
	UpdatedOn  time.Time                    `json:"updated_on"`
	FetchedAt  time.Time                    `json:"fetched_at"`
}

// Groups lists every group mentioned by the weekly tables or exceptions.
func (s *Snapshot) Groups() []string {
	seen := make(map[string]struct{})
	for g := range s.Weekly {
		seen[g] = struct{}{}
	}
	for _, d := range s.Exceptions {
		for g := range d.Overrides {
			seen[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// HasGroup reports whether group appears anywhere in the snapshot.
func (s *Snapshot) HasGroup(group string) bool {
	if _, ok := s.Weekly[group]; ok {
		return true
	}
	for _, d := range s.Exceptions {
		if _, ok := d.Overrides[group]; ok {
			return true
		}
	}
	return false
}

// SlotCount returns the number of weekly slots across all groups.
func (s *Snapshot) SlotCount() int {
	n := 0
	for _, w := range s.Weekly {
		n += w.Len()
	}
	return n
}

// Timeline returns the resolver for group in loc.
func (s *Snapshot) Timeline(group string, loc *time.Location) (*timeline.Timeline, error) {
	if !s.HasGroup(group) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
	}
	return timeline.New(s.Weekly[group], s.Exceptions, group, loc), nil
}
