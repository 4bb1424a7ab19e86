package metrics

import "github.com/kilianp07/outages/core/factory"

// Config lists the sinks to build. The HTTP listener exposing Prometheus
// metrics is configured separately.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
}
