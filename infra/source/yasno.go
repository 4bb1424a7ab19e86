package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/outages/core/logger"
	"github.com/kilianp07/outages/core/schedule"
	infralogger "github.com/kilianp07/outages/infra/logger"
)

// DefaultYasnoPlannedURL is the planned outages endpoint. {region_id} and
// {dso_id} are substituted from the config.
const DefaultYasnoPlannedURL = "https://app.yasno.ua/api/blackout-service/public/shutdowns/regions/{region_id}/dsos/{dso_id}/planned-outages"

// YasnoConfig configures the Yasno provider.
type YasnoConfig struct {
	RegionID   int    `json:"region_id"`
	DSOID      int    `json:"dso_id"`
	PlannedURL string `json:"planned_url"`
	// ProbableURL serves the weekly table. It has no default; when empty the
	// weekly base stays empty and only planned days are reported.
	ProbableURL string        `json:"probable_url"`
	Timeout     time.Duration `json:"timeout"`
}

// YasnoProvider reads planned day schedules and the probable weekly table.
type YasnoProvider struct {
	cfg    YasnoConfig
	client *http.Client
	log    logger.Logger
}

// NewYasnoProvider validates cfg and creates a provider.
func NewYasnoProvider(cfg YasnoConfig) (*YasnoProvider, error) {
	if cfg.RegionID <= 0 || cfg.DSOID <= 0 {
		return nil, fmt.Errorf("yasno source: region_id and dso_id are required")
	}
	if cfg.PlannedURL == "" {
		cfg.PlannedURL = DefaultYasnoPlannedURL
	}
	return &YasnoProvider{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		log:    infralogger.New("yasno-source"),
	}, nil
}

func (p *YasnoProvider) Name() string { return "yasno" }

type yasnoDay struct {
	Slots  []schedule.RawSlot `json:"slots"`
	Date   string             `json:"date"`
	Status string             `json:"status"`
}

type yasnoGroup struct {
	Today     *yasnoDay `json:"today"`
	Tomorrow  *yasnoDay `json:"tomorrow"`
	UpdatedOn string    `json:"updatedOn"`
}

type yasnoProbable map[string]struct {
	DSOs map[string]struct {
		Groups map[string]struct {
			Slots map[string][]schedule.RawSlot `json:"slots"`
		} `json:"groups"`
	} `json:"dsos"`
}

// Fetch requests the planned schedule and, when configured, the probable
// weekly table. A probable failure is logged and the planned days are still
// returned.
func (p *YasnoProvider) Fetch(ctx context.Context) (schedule.RawSchedule, error) {
	body, err := get(ctx, p.client, p.url(p.cfg.PlannedURL), nil)
	if err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("yasno planned: %w", err)
	}
	raw, err := p.parsePlanned(body)
	if err != nil {
		return schedule.RawSchedule{}, err
	}
	if p.cfg.ProbableURL != "" {
		body, err := get(ctx, p.client, p.url(p.cfg.ProbableURL), nil)
		if err != nil {
			p.log.Warnf("yasno probable: %v", err)
		} else if weekly, err := p.parseProbable(body); err != nil {
			p.log.Warnf("yasno probable: %v", err)
		} else {
			raw.Weekly = weekly
		}
	}
	return raw, nil
}

func (p *YasnoProvider) url(tmpl string) string {
	return strings.NewReplacer(
		"{region_id}", strconv.Itoa(p.cfg.RegionID),
		"{dso_id}", strconv.Itoa(p.cfg.DSOID),
	).Replace(tmpl)
}

// parsePlanned folds the per-group today/tomorrow records into one
// exception per date.
func (p *YasnoProvider) parsePlanned(body []byte) (schedule.RawSchedule, error) {
	var groups map[string]yasnoGroup
	if err := json.Unmarshal(body, &groups); err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("yasno planned: decode: %w", err)
	}
	var raw schedule.RawSchedule
	byDate := make(map[string]*schedule.RawException)
	var dates []time.Time
	for group, g := range groups {
		if ts, err := time.Parse(time.RFC3339, g.UpdatedOn); err == nil {
			if ts.After(raw.UpdatedOn) {
				raw.UpdatedOn = ts
			}
		} else if g.UpdatedOn != "" {
			p.log.Warnf("group %s: bad updatedOn %q", group, g.UpdatedOn)
		}
		for _, day := range []*yasnoDay{g.Today, g.Tomorrow} {
			if day == nil || day.Date == "" {
				continue
			}
			date, err := time.Parse(time.RFC3339, day.Date)
			if err != nil {
				p.log.Warnf("group %s: bad date %q", group, day.Date)
				continue
			}
			key := date.Format("02.01.2006")
			ex, ok := byDate[key]
			if !ok {
				ex = &schedule.RawException{
					Title:  "Yasno " + key,
					Groups: make(map[string][]schedule.RawSlot),
					Status: make(map[string]string),
				}
				byDate[key] = ex
				dates = append(dates, date)
			}
			ex.Groups[group] = day.Slots
			ex.Status[group] = day.Status
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		raw.Exceptions = append(raw.Exceptions, *byDate[d.Format("02.01.2006")])
	}
	return raw, nil
}

// parseProbable extracts the weekly tables of the configured region and
// DSO. Weekday keys run "0" (Monday) to "6".
func (p *YasnoProvider) parseProbable(body []byte) (map[string][7][]schedule.RawSlot, error) {
	var prob yasnoProbable
	if err := json.Unmarshal(body, &prob); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	region, ok := prob[strconv.Itoa(p.cfg.RegionID)]
	if !ok {
		return nil, fmt.Errorf("region %d not found", p.cfg.RegionID)
	}
	dso, ok := region.DSOs[strconv.Itoa(p.cfg.DSOID)]
	if !ok {
		return nil, fmt.Errorf("dso %d not found", p.cfg.DSOID)
	}
	weekly := make(map[string][7][]schedule.RawSlot, len(dso.Groups))
	for group, g := range dso.Groups {
		var week [7][]schedule.RawSlot
		for key, slots := range g.Slots {
			wd, err := strconv.Atoi(key)
			if err != nil || wd < 0 || wd > 6 {
				p.log.Warnf("group %s: bad weekday %q", group, key)
				continue
			}
			week[wd] = slots
		}
		weekly[group] = week
	}
	return weekly, nil
}
