package config

import "fmt"

// Storage backends for the last known good snapshot.
const (
	StorageNone   = "none"
	StorageSQLite = "sqlite"
)

// StorageConfig controls snapshot persistence across restarts.
type StorageConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StorageSQLite
	}
	if c.Backend == StorageSQLite && c.Path == "" {
		c.Path = "outages.db"
	}
}

// Validate checks mandatory fields.
func (c StorageConfig) Validate() error {
	switch c.Backend {
	case StorageNone:
		return nil
	case StorageSQLite:
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
}
