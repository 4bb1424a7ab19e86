// Package schedule turns raw operator data into immutable snapshots and
// keeps the most recent good snapshot available to queries.
//
// A Provider fetches a RawSchedule; the Parser validates it into per-group
// weekly tables and exception days; the Refresher installs the result in a
// Store, persists it and notifies subscribers. A failed refresh never
// replaces the previous snapshot.
package schedule
