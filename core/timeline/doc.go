// Package timeline resolves the weekly base schedule and date-specific
// exception days into a flat, non-overlapping sequence of outage events.
//
// Two lazy edge sources feed a two-way merge. The merged edges drive a
// three-level priority stack (base < exception blanking < exception
// override) whose visible layer is emitted as events, clipped to the query
// window. Nothing is cached between queries.
package timeline
