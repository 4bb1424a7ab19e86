package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/outages/core/logger"
	"github.com/kilianp07/outages/core/model"
)

// DefaultSlotTypes are the slot types rendered as events.
var DefaultSlotTypes = []string{model.LabelDefinite, model.LabelPossible, model.LabelEmergency}

var titleDate = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)

// ParseTitleDate extracts the first D.M.Y date from title. Two digit years
// are read as 20YY.
func ParseTitleDate(title string) (model.Date, error) {
	for _, m := range titleDate.FindAllStringSubmatch(title, -1) {
		if len(m[3]) != 2 && len(m[3]) != 4 {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || int(t.Month()) != month {
			return model.Date{}, fmt.Errorf("%w: invalid date %q", ErrBadTitleDate, m[0])
		}
		return model.DateOf(t), nil
	}
	return model.Date{}, fmt.Errorf("%w: %q", ErrBadTitleDate, title)
}

// Parser validates raw operator data. Problems with individual records are
// logged and the record is dropped; parsing itself never fails.
type Parser struct {
	types map[string]struct{}
	log   logger.Logger
}

// NewParser accepts only slots whose type is listed in types; an empty list
// means DefaultSlotTypes.
func NewParser(types []string, log logger.Logger) *Parser {
	if len(types) == 0 {
		types = DefaultSlotTypes
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return &Parser{types: set, log: logger.OrNop(log)}
}

// Snapshot builds an immutable snapshot from raw data.
func (p *Parser) Snapshot(provider string, raw RawSchedule, fetchedAt time.Time) *Snapshot {
	weekly := make(map[string]model.WeeklyTable, len(raw.Weekly))
	for group, days := range raw.Weekly {
		weekly[group] = p.Weekly(group, days)
	}
	return &Snapshot{
		Provider:   provider,
		Weekly:     weekly,
		Exceptions: p.Exceptions(raw.Exceptions),
		UpdatedOn:  raw.UpdatedOn,
		FetchedAt:  fetchedAt,
	}
}

// Weekly converts one group's raw weekly slots.
func (p *Parser) Weekly(group string, days [7][]RawSlot) model.WeeklyTable {
	var table model.WeeklyTable
	for i, raw := range days {
		table[i] = p.slots(fmt.Sprintf("%s weekday %d", group, i), raw)
	}
	return table
}

// Exceptions converts raw exception records into days ordered by date. A
// later record for the same date replaces the earlier one.
func (p *Parser) Exceptions(raws []RawException) []model.ExceptionDay {
	byDate := make(map[model.Date]model.ExceptionDay, len(raws))
	for _, raw := range raws {
		date, err := ParseTitleDate(raw.Title)
		if err != nil {
			p.log.Warnf("skipping exception record: %v", err)
			continue
		}
		day, ok := p.exception(date, raw)
		if !ok {
			continue
		}
		if _, dup := byDate[date]; dup {
			p.log.Debugf("exception %s replaced by later record %q", date, raw.Title)
		}
		byDate[date] = day
	}
	out := make([]model.ExceptionDay, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (p *Parser) exception(date model.Date, raw RawException) (model.ExceptionDay, bool) {
	day := model.ExceptionDay{Date: date, Title: raw.Title, Overrides: map[string][]model.Slot{}}
	groups := make(map[string]struct{}, len(raw.Groups)+len(raw.Status))
	for g := range raw.Groups {
		groups[g] = struct{}{}
	}
	for g := range raw.Status {
		groups[g] = struct{}{}
	}
	applied := len(raw.Status) == 0
	for g := range groups {
		switch status := raw.Status[g]; status {
		case "", StatusScheduleApplies:
			day.Overrides[g] = p.slots(fmt.Sprintf("%s %s", date, g), raw.Groups[g])
			applied = true
		case StatusEmergencyShutdowns:
			day.Overrides[g] = []model.Slot{{Start: 0, End: model.MinutesPerDay, Label: model.LabelEmergency}}
			applied = true
		default:
			p.log.Debugf("group %s on %s has status %s; weekly schedule stays", g, date, status)
		}
	}
	if !applied {
		return model.ExceptionDay{}, false
	}
	return day, true
}

// slots filters by type, validates, orders by start and drops overlaps.
func (p *Parser) slots(where string, raw []RawSlot) []model.Slot {
	out := make([]model.Slot, 0, len(raw))
	for _, r := range raw {
		if _, ok := p.types[r.Type]; !ok {
			continue
		}
		s := model.Slot{Start: r.Start, End: r.End, Label: r.Type}
		if err := s.Validate(); err != nil {
			p.log.Warnf("%s: dropping slot: %v", where, err)
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	kept := out[:0]
	for _, s := range out {
		if n := len(kept); n > 0 && s.Start < kept[n-1].End {
			p.log.Warnf("%s: dropping slot %d-%d overlapping %d-%d", where, s.Start, s.End, kept[n-1].Start, kept[n-1].End)
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
