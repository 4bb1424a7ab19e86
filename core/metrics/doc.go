// Package metrics defines the events recorded by the outage service and the
// sink interfaces that consume them. A sink must record refresh outcomes;
// state snapshots and query timings are optional and detected by type
// assertion. Sinks are created from configuration through a registry, and
// several configured sinks are combined into a MultiSink.
package metrics
