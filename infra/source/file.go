package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/outages/core/schedule"
)

// FileConfig points at a schedule fixture.
type FileConfig struct {
	Path string `json:"path"`
}

// FileProvider reads the schedule from a YAML or JSON file on every fetch,
// so edits are picked up on the next refresh.
type FileProvider struct {
	path string
}

// fileSchedule is the on-disk layout. Weekly lists up to seven days per
// group, Monday first.
type fileSchedule struct {
	Weekly     map[string][][]schedule.RawSlot `yaml:"weekly"`
	Exceptions []schedule.RawException         `yaml:"exceptions"`
	UpdatedOn  time.Time                       `yaml:"updated_on"`
}

// NewFileProvider creates a FileProvider.
func NewFileProvider(cfg FileConfig) (*FileProvider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source: path is required")
	}
	return &FileProvider{path: cfg.Path}, nil
}

func (p *FileProvider) Name() string { return "file" }

// Fetch decodes the file. JSON is accepted as a subset of YAML.
func (p *FileProvider) Fetch(ctx context.Context) (schedule.RawSchedule, error) {
	if err := ctx.Err(); err != nil {
		return schedule.RawSchedule{}, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("file source: %w", err)
	}
	var fs fileSchedule
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("file source %s: %w", p.path, err)
	}
	raw := schedule.RawSchedule{
		Exceptions: fs.Exceptions,
		UpdatedOn:  fs.UpdatedOn,
	}
	if len(fs.Weekly) > 0 {
		raw.Weekly = make(map[string][7][]schedule.RawSlot, len(fs.Weekly))
		for group, days := range fs.Weekly {
			if len(days) > 7 {
				return schedule.RawSchedule{}, fmt.Errorf("file source: group %s has %d weekdays", group, len(days))
			}
			var week [7][]schedule.RawSlot
			copy(week[:], days)
			raw.Weekly[group] = week
		}
	}
	return raw, nil
}
