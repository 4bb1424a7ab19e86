package outages

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/outages/core/logger"
	"github.com/kilianp07/outages/core/metrics"
	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/schedule"
	"github.com/kilianp07/outages/core/status"
	"github.com/kilianp07/outages/pkg/export"
)

// DefaultWindow is used when a query omits its end.
const DefaultWindow = 7 * 24 * time.Hour

// DefaultMaxWindow is the longest events window accepted when Options leaves
// MaxWindow unset.
const DefaultMaxWindow = 31 * 24 * time.Hour

// Options configures the handlers.
type Options struct {
	// Group is used when a request does not name one.
	Group     string
	Location  *time.Location
	Horizon   time.Duration
	// MaxWindow caps end minus start on the events endpoint.
	MaxWindow time.Duration
	Metrics   metrics.QueryRecorder
	Logger    logger.Logger
	Now       func() time.Time
}

// Handler serves timeline queries against the current snapshot.
type Handler struct {
	store *schedule.Store
	opts  Options
	log   logger.Logger
}

// NewHandler creates a Handler reading from store.
func NewHandler(store *schedule.Store, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	if opts.MaxWindow <= 0 {
		opts.MaxWindow = DefaultMaxWindow
	}
	return &Handler{store: store, opts: opts, log: logger.OrNop(opts.Logger)}
}

// Register mounts the handlers under /api/outages.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/api/outages/events", h.Events())
	mux.Handle("/api/outages/current", h.Current())
	mux.Handle("/api/outages/status", h.Status())
	mux.Handle("/api/outages/groups", h.Groups())
	mux.Handle("/api/outages/calendar.ics", h.Calendar())
}

// EventsResponse is the body of GET /api/outages/events.
type EventsResponse struct {
	Group  string              `json:"group"`
	Start  time.Time           `json:"start"`
	End    time.Time           `json:"end"`
	Events []model.OutageEvent `json:"events"`
}

// CurrentResponse is the body of GET /api/outages/current.
type CurrentResponse struct {
	Group string             `json:"group"`
	At    time.Time          `json:"at"`
	Event *model.OutageEvent `json:"event"`
}

// Events returns a handler for GET /api/outages/events?group=&start=&end=.
// start defaults to now and end to start plus DefaultWindow. Windows longer
// than MaxWindow are rejected.
func (h *Handler) Events() http.Handler {
	return h.get(func(w http.ResponseWriter, r *http.Request) {
		start, err := h.timeParam(r, "start", h.opts.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		end, err := h.timeParam(r, "end", start.Add(DefaultWindow))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if end.Sub(start) > h.opts.MaxWindow {
			http.Error(w, fmt.Sprintf("window exceeds %s", h.opts.MaxWindow), http.StatusBadRequest)
			return
		}
		group := h.group(r)
		began := time.Now()
		tl, _, err := h.store.Timeline(group, h.opts.Location)
		if err != nil {
			h.fail(w, err)
			return
		}
		events := tl.EventsBetween(start, end)
		if events == nil {
			events = []model.OutageEvent{}
		}
		h.record("between", group, len(events), began)
		writeJSON(w, EventsResponse{Group: group, Start: start, End: end, Events: events})
	})
}

// Current returns a handler for GET /api/outages/current?group=&at=.
func (h *Handler) Current() http.Handler {
	return h.get(func(w http.ResponseWriter, r *http.Request) {
		at, err := h.timeParam(r, "at", h.opts.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		group := h.group(r)
		began := time.Now()
		tl, _, err := h.store.Timeline(group, h.opts.Location)
		if err != nil {
			h.fail(w, err)
			return
		}
		resp := CurrentResponse{Group: group, At: at}
		n := 0
		if ev, ok := tl.EventAt(at); ok {
			resp.Event = &ev
			n = 1
		}
		h.record("at", group, n, began)
		writeJSON(w, resp)
	})
}

// Status returns a handler for GET /api/outages/status?group=&at=.
func (h *Handler) Status() http.Handler {
	return h.get(func(w http.ResponseWriter, r *http.Request) {
		at, err := h.timeParam(r, "at", h.opts.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		group := h.group(r)
		began := time.Now()
		tl, snap, err := h.store.Timeline(group, h.opts.Location)
		if err != nil {
			h.fail(w, err)
			return
		}
		st := status.Derive(tl, at, h.opts.Horizon).WithSchedule(snap.UpdatedOn, snap.FetchedAt)
		h.record("status", group, 1, began)
		writeJSON(w, st)
	})
}

// Calendar returns a handler for GET /api/outages/calendar.ics?group= that
// serves the events from local midnight today over the horizon as an
// iCalendar feed.
func (h *Handler) Calendar() http.Handler {
	return h.get(func(w http.ResponseWriter, r *http.Request) {
		group := h.group(r)
		tl, _, err := h.store.Timeline(group, h.opts.Location)
		if err != nil {
			h.fail(w, err)
			return
		}
		now := h.opts.Now()
		start := model.DateOf(now.In(h.opts.Location)).Midnight(h.opts.Location)
		horizon := h.opts.Horizon
		if horizon <= 0 {
			horizon = status.DefaultHorizon
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		if err := export.WriteICS(w, group, tl.EventsBetween(start, now.Add(horizon)), now); err != nil {
			h.log.Errorf("write calendar: %v", err)
		}
	})
}

// Groups returns a handler for GET /api/outages/groups.
func (h *Handler) Groups() http.Handler {
	return h.get(func(w http.ResponseWriter, r *http.Request) {
		snap := h.store.Load()
		if snap == nil {
			h.fail(w, schedule.ErrNoData)
			return
		}
		writeJSON(w, snap.Groups())
	})
}

func (h *Handler) get(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	})
}

func (h *Handler) group(r *http.Request) string {
	if g := r.URL.Query().Get("group"); g != "" {
		return g
	}
	return h.opts.Group
}

// timeParam accepts RFC 3339 timestamps or plain dates, which mean local
// midnight.
func (h *Handler) timeParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, h.opts.Location); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid %s %q: want RFC 3339 or YYYY-MM-DD", name, s)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNoData):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, schedule.ErrUnknownGroup):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Errorf("query: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) record(kind, group string, n int, began time.Time) {
	ev := metrics.QueryEvent{Kind: kind, Group: group, Events: n, Duration: time.Since(began)}
	if err := h.opts.Metrics.RecordQuery(ev); err != nil {
		h.log.Warnf("record query metrics: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
