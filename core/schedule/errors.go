package schedule

import "errors"

var (
	// ErrNoData is returned when no snapshot has been loaded yet, or when a
	// provider returns nothing usable.
	ErrNoData = errors.New("schedule: no data")
	// ErrUnknownGroup is returned when the snapshot knows nothing about a group.
	ErrUnknownGroup = errors.New("schedule: unknown group")
	// ErrBadTitleDate is returned when an exception title carries no valid date.
	ErrBadTitleDate = errors.New("schedule: no date in title")
)
