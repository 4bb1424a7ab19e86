package config

import "time"

// DefaultMaxWindow bounds the span of a single events query.
const DefaultMaxWindow = 31 * 24 * time.Hour

// HTTPConfig sets the listener for the query API and /metrics.
// An empty Address after defaults means ":8080"; "-" disables the server.
type HTTPConfig struct {
	Address string `json:"address"`
	// MaxWindow is the longest start/end span the events endpoint accepts.
	MaxWindow time.Duration `json:"max_window"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.MaxWindow <= 0 {
		c.MaxWindow = DefaultMaxWindow
	}
}

// Enabled reports whether the server should start.
func (c HTTPConfig) Enabled() bool { return c.Address != "-" }
