package schedule

import (
	"sync/atomic"
	"time"

	"github.com/kilianp07/outages/core/timeline"
)

// Store holds the current snapshot. Readers never block writers; a swap is a
// single pointer store.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// Load returns the current snapshot or nil before the first refresh.
func (s *Store) Load() *Snapshot { return s.cur.Load() }

// Swap installs snap and returns the snapshot it replaced.
func (s *Store) Swap(snap *Snapshot) *Snapshot { return s.cur.Swap(snap) }

// Timeline resolves group against the current snapshot.
func (s *Store) Timeline(group string, loc *time.Location) (*timeline.Timeline, *Snapshot, error) {
	snap := s.Load()
	if snap == nil {
		return nil, nil, ErrNoData
	}
	tl, err := snap.Timeline(group, loc)
	if err != nil {
		return nil, snap, err
	}
	return tl, snap, nil
}
