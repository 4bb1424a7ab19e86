// Package export writes resolved outage events in formats other tools can
// consume.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/outages/core/model"
)

// WriteJSON writes the events to w as a JSON array.
func WriteJSON(w io.Writer, events []model.OutageEvent) error {
	if events == nil {
		events = []model.OutageEvent{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// WriteCSV writes one row per event with start and end in RFC 3339.
func WriteCSV(w io.Writer, group string, events []model.OutageEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"group", "start", "end", "minutes", "label"}); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{
			group,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
			strconv.FormatFloat(e.Duration().Minutes(), 'f', -1, 64),
			e.Label,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const icsStamp = "20060102T150405Z"

// WriteICS writes an iCalendar feed so the schedule can be subscribed to
// from a calendar application. stamp is used as DTSTAMP.
func WriteICS(w io.Writer, group string, events []model.OutageEvent, stamp time.Time) error {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//outages//schedule//EN\r\n")
	b.WriteString("X-WR-CALNAME:Outages " + escapeText(group) + "\r\n")
	for _, e := range events {
		fmt.Fprintf(&b, "BEGIN:VEVENT\r\nUID:%s-%d@outages\r\n", escapeText(group), e.Start.Unix())
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", stamp.UTC().Format(icsStamp))
		fmt.Fprintf(&b, "DTSTART:%s\r\nDTEND:%s\r\n", e.Start.UTC().Format(icsStamp), e.End.UTC().Format(icsStamp))
		fmt.Fprintf(&b, "SUMMARY:%s\r\nEND:VEVENT\r\n", escapeText(e.Label))
	}
	b.WriteString("END:VCALENDAR\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeText(s string) string {
	return strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`).Replace(s)
}
