package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Kyiv on hosts without zoneinfo

	"github.com/kilianp07/outages/core/logger"
	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/schedule"
	infralogger "github.com/kilianp07/outages/infra/logger"
)

// DefaultDTEKURL is the Kyiv region shutdowns page.
const DefaultDTEKURL = "https://www.dtek-krem.com.ua/ua/shutdowns"

const dtekGroupPrefix = "GPV"

var (
	dtekFactRe   = regexp.MustCompile(`DisconSchedule\.fact\s*=\s*`)
	dtekPresetRe = regexp.MustCompile(`DisconSchedule\.preset\s*=\s*`)
)

// The page is served to browsers only.
var dtekHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "uk,en-US;q=0.8,en;q=0.5",
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:144.0) Gecko/20100101 Firefox/144.0",
}

// DTEKConfig configures the DTEK provider.
type DTEKConfig struct {
	URL string `json:"url"`
	// Timezone interprets the day timestamps and the update time.
	Timezone string        `json:"timezone"`
	Timeout  time.Duration `json:"timeout"`
}

// DTEKProvider scrapes the hour maps embedded in the shutdowns page.
type DTEKProvider struct {
	url    string
	loc    *time.Location
	client *http.Client
	log    logger.Logger
}

// NewDTEKProvider creates a provider. Timezone defaults to Europe/Kyiv.
func NewDTEKProvider(cfg DTEKConfig) (*DTEKProvider, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultDTEKURL
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Kyiv"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dtek source: %w", err)
	}
	return &DTEKProvider{
		url:    cfg.URL,
		loc:    loc,
		client: newHTTPClient(cfg.Timeout),
		log:    infralogger.New("dtek-source"),
	}, nil
}

func (p *DTEKProvider) Name() string { return "dtek" }

// hourMap maps hour numbers "1".."24" to a power state.
type hourMap map[string]string

type dtekFact struct {
	Data   map[string]map[string]hourMap `json:"data"`
	Update string                        `json:"update"`
}

type dtekPreset struct {
	Data map[string]map[string]hourMap `json:"data"`
}

// Fetch downloads the page and decodes the fact and preset objects.
func (p *DTEKProvider) Fetch(ctx context.Context) (schedule.RawSchedule, error) {
	body, err := get(ctx, p.client, p.url, dtekHeaders)
	if err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("dtek: %w", err)
	}
	return p.parse(string(body))
}

func (p *DTEKProvider) parse(html string) (schedule.RawSchedule, error) {
	var fact dtekFact
	found, err := extractObject(html, dtekFactRe, &fact)
	if err != nil {
		return schedule.RawSchedule{}, fmt.Errorf("dtek: fact: %w", err)
	}
	if !found {
		return schedule.RawSchedule{}, fmt.Errorf("dtek: DisconSchedule.fact not found, the request may have been filtered")
	}

	var raw schedule.RawSchedule
	if fact.Update != "" {
		ts, err := time.ParseInLocation("02.01.2006 15:04", fact.Update, p.loc)
		if err != nil {
			p.log.Warnf("bad update time %q", fact.Update)
		} else {
			raw.UpdatedOn = ts
		}
	}

	days := make([]int64, 0, len(fact.Data))
	for key := range fact.Data {
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			p.log.Warnf("bad day key %q", key)
			continue
		}
		days = append(days, ts)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	for _, ts := range days {
		groups := fact.Data[strconv.FormatInt(ts, 10)]
		ex := schedule.RawException{
			Title:  "DTEK " + time.Unix(ts, 0).In(p.loc).Format("02.01.2006"),
			Groups: make(map[string][]schedule.RawSlot, len(groups)),
		}
		for key, hours := range groups {
			ex.Groups[strings.TrimPrefix(key, dtekGroupPrefix)] = decodeHours(hours)
		}
		raw.Exceptions = append(raw.Exceptions, ex)
	}

	var preset dtekPreset
	if found, err := extractObject(html, dtekPresetRe, &preset); err != nil {
		p.log.Warnf("preset: %v", err)
	} else if found {
		raw.Weekly = presetWeekly(preset)
	}
	return raw, nil
}

// extractObject decodes the JSON value assigned after re. It reports false
// when the assignment is absent.
func extractObject(html string, re *regexp.Regexp, out any) (bool, error) {
	loc := re.FindStringIndex(html)
	if loc == nil {
		return false, nil
	}
	if err := json.NewDecoder(strings.NewReader(html[loc[1]:])).Decode(out); err != nil {
		return true, err
	}
	return true, nil
}

// presetWeekly converts the preset tables. Weekday keys run "1" (Monday)
// to "7".
func presetWeekly(preset dtekPreset) map[string][7][]schedule.RawSlot {
	weekly := make(map[string][7][]schedule.RawSlot, len(preset.Data))
	for key, days := range preset.Data {
		var week [7][]schedule.RawSlot
		for wd, hours := range days {
			n, err := strconv.Atoi(wd)
			if err != nil || n < 1 || n > 7 {
				continue
			}
			week[n-1] = decodeHours(hours)
		}
		weekly[strings.TrimPrefix(key, dtekGroupPrefix)] = week
	}
	return weekly
}

// decodeHours turns an hour map into half-hour resolution slots, merging
// neighbours of the same kind.
//
//	yes     power
//	no      outage for the whole hour
//	first   outage in the first half
//	second  outage in the second half
//	maybe   possible outage for the whole hour
//	mfirst  possible outage in the first half
//	msecond possible outage in the second half
func decodeHours(hours hourMap) []schedule.RawSlot {
	var halves [48]string
	for n := 1; n <= 24; n++ {
		h := (n - 1) * 2
		switch hours[strconv.Itoa(n)] {
		case "no":
			halves[h], halves[h+1] = model.LabelDefinite, model.LabelDefinite
		case "first":
			halves[h] = model.LabelDefinite
		case "second":
			halves[h+1] = model.LabelDefinite
		case "maybe":
			halves[h], halves[h+1] = model.LabelPossible, model.LabelPossible
		case "mfirst":
			halves[h] = model.LabelPossible
		case "msecond":
			halves[h+1] = model.LabelPossible
		}
	}
	var slots []schedule.RawSlot
	for i := 0; i < len(halves); {
		if halves[i] == "" {
			i++
			continue
		}
		j := i
		for j < len(halves) && halves[j] == halves[i] {
			j++
		}
		slots = append(slots, schedule.RawSlot{Start: i * 30, End: j * 30, Type: halves[i]})
		i = j
	}
	return slots
}
