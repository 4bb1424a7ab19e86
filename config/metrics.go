package config

import (
	"fmt"

	"github.com/kilianp07/outages/core/factory"
	"github.com/kilianp07/outages/core/metrics"
)

// MetricsConfig lists the sinks and whether /metrics is served on the HTTP
// listener.
type MetricsConfig struct {
	metrics.Config `json:",squash"`
	// Prometheus serves the default registry on /metrics.
	Prometheus bool `json:"prometheus"`
}

// SetDefaults falls back to a nop sink.
func (c *MetricsConfig) SetDefaults() {
	if len(c.Sinks) == 0 {
		c.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	}
}

// Validate checks that every sink names a type.
func (c MetricsConfig) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d: type is required", i)
		}
	}
	return nil
}
