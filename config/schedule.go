package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // Europe/Kyiv on hosts without zoneinfo

	"github.com/kilianp07/outages/core/factory"
)

// ScheduleConfig selects the schedule provider and the group to follow.
type ScheduleConfig struct {
	Provider factory.ModuleConfig `json:"provider"`
	// Group is the queue identifier, e.g. "1.1" for Yasno or "3" for DTEK.
	Group    string `json:"group"`
	Timezone string `json:"timezone"`
	// RefreshInterval is how often the provider is polled.
	RefreshInterval time.Duration `json:"refresh_interval"`
	// StatusInterval is how often the derived status is republished.
	StatusInterval time.Duration `json:"status_interval"`
	// Horizon bounds the search for the next outage.
	Horizon time.Duration `json:"horizon"`
	// SlotTypes lists the raw slot types kept as outages. Empty keeps
	// Definite, Possible and Emergency.
	SlotTypes []string `json:"slot_types"`
}

// SetDefaults applies sane defaults.
func (c *ScheduleConfig) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "Europe/Kyiv"
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 15 * time.Minute
	}
	if c.StatusInterval <= 0 {
		c.StatusInterval = time.Minute
	}
	if c.Horizon <= 0 {
		c.Horizon = 7 * 24 * time.Hour
	}
}

// Validate checks mandatory fields.
func (c ScheduleConfig) Validate() error {
	if c.Provider.Type == "" {
		return fmt.Errorf("provider type is required")
	}
	if c.Group == "" {
		return fmt.Errorf("group is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
