package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/outages/app"
	"github.com/kilianp07/outages/config"
	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/status"
	"github.com/kilianp07/outages/pkg/export"
)

var queryFlags struct {
	group string
	from  string
	to     string
	format string
	json   bool
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Fetch the schedule once and print the resolved outages",
	RunE:  runEvents,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Fetch the schedule once and print the current status",
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{eventsCmd, statusCmd} {
		c.Flags().StringVarP(&queryFlags.group, "group", "g", "", "group to query (defaults to schedule.group)")
	}
	statusCmd.Flags().BoolVar(&queryFlags.json, "json", false, "print JSON")
	eventsCmd.Flags().StringVarP(&queryFlags.format, "format", "f", "table", "output format: table, json, csv or ics")
	eventsCmd.Flags().StringVar(&queryFlags.from, "from", "", "window start, RFC 3339 or YYYY-MM-DD (default today)")
	eventsCmd.Flags().StringVar(&queryFlags.to, "to", "", "window end, RFC 3339 or YYYY-MM-DD (default from + 7 days)")
	rootCmd.AddCommand(eventsCmd, statusCmd)
}

// loadOnce builds a service without outward publishing and installs one
// snapshot, falling back to the persisted one when the fetch fails.
func loadOnce(ctx context.Context) (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg.MQTT.Enabled = false
	if queryFlags.group != "" {
		cfg.Schedule.Group = queryFlags.group
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := svc.Refresher().Restore(ctx); err != nil {
		_ = svc.Close()
		return nil, nil, err
	}
	if err := svc.Refresher().Refresh(ctx); err != nil && svc.Store().Load() == nil {
		_ = svc.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	svc, cfg, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	loc := svc.Location()
	from := model.DateOf(time.Now().In(loc)).Midnight(loc)
	if queryFlags.from != "" {
		if from, err = parseTime(queryFlags.from, loc); err != nil {
			return err
		}
	}
	to := from.AddDate(0, 0, 7)
	if queryFlags.to != "" {
		if to, err = parseTime(queryFlags.to, loc); err != nil {
			return err
		}
	}
	tl, _, err := svc.Store().Timeline(cfg.Schedule.Group, loc)
	if err != nil {
		return err
	}
	events := tl.EventsBetween(from, to)
	out := cmd.OutOrStdout()
	switch queryFlags.format {
	case "table", "":
		return printEvents(out, events, loc)
	case "json":
		return export.WriteJSON(out, events)
	case "csv":
		return export.WriteCSV(out, cfg.Schedule.Group, events)
	case "ics":
		return export.WriteICS(out, cfg.Schedule.Group, events, time.Now())
	default:
		return fmt.Errorf("unknown format %q", queryFlags.format)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, cfg, err := loadOnce(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	tl, snap, err := svc.Store().Timeline(cfg.Schedule.Group, svc.Location())
	if err != nil {
		return err
	}
	st := status.Derive(tl, time.Now(), cfg.Schedule.Horizon).WithSchedule(snap.UpdatedOn, snap.FetchedAt)
	if queryFlags.json {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	return printStatus(cmd.OutOrStdout(), st, svc.Location())
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEvents(w io.Writer, events []model.OutageEvent, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tDURATION\tLABEL")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			ev.Start.In(loc).Format("Mon 2006-01-02 15:04"),
			ev.End.In(loc).Format("Mon 2006-01-02 15:04"),
			ev.Duration(), ev.Label)
	}
	return tw.Flush()
}

func printStatus(w io.Writer, st status.Status, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "group\t%s\n", st.Group)
	fmt.Fprintf(tw, "state\t%s\n", st.State)
	if st.Current != nil {
		fmt.Fprintf(tw, "until\t%s\n", st.Current.End.In(loc).Format(time.DateTime))
	}
	if st.NextConnectivity != nil {
		fmt.Fprintf(tw, "power back\t%s\n", st.NextConnectivity.In(loc).Format(time.DateTime))
	}
	if st.NextOutage != nil {
		fmt.Fprintf(tw, "next outage\t%s (%s)\n", st.NextOutage.Start.In(loc).Format(time.DateTime), st.NextOutage.Label)
	}
	if st.NextPossible != nil {
		fmt.Fprintf(tw, "next possible\t%s\n", st.NextPossible.Start.In(loc).Format(time.DateTime))
	}
	if st.ScheduleUpdatedOn != nil {
		fmt.Fprintf(tw, "updated on\t%s\n", st.ScheduleUpdatedOn.In(loc).Format(time.DateTime))
	}
	return tw.Flush()
}
