package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/outages/core/metrics"
)

// States reported through the outage_state gauge.
var promStates = []string{"normal", "outage", "possible", "emergency"}

// PromSink exposes refresh, state and query metrics to Prometheus.
type PromSink struct {
	refreshes   *prometheus.CounterVec
	refreshTime *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	slots       *prometheus.GaugeVec
	exceptions  *prometheus.GaugeVec
	state       *prometheus.GaugeVec
	nextOutage  *prometheus.GaugeVec
	queryTime   *prometheus.HistogramVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. Collectors that are
// already registered are reused, so several sinks can share a registry.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outages_refresh_total",
			Help: "Schedule refresh attempts by provider and outcome",
		}, []string{"provider", "success"}),
		refreshTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outages_refresh_duration_seconds",
			Help:    "Time spent fetching and parsing a schedule",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outages_refresh_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}, []string{"provider"}),
		slots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outages_weekly_slots",
			Help: "Weekly slots in the current snapshot",
		}, []string{"provider"}),
		exceptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outages_exception_days",
			Help: "Exception days in the current snapshot",
		}, []string{"provider"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outages_state",
			Help: "1 for the current state of a group, 0 otherwise",
		}, []string{"group", "state"}),
		nextOutage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outages_next_outage_timestamp_seconds",
			Help: "Unix time of the next outage of a group, 0 when none is scheduled",
		}, []string{"group"}),
		queryTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outages_query_duration_seconds",
			Help:    "Timeline query latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"kind"}),
	}
	var err error
	if s.refreshes, err = register(reg, s.refreshes); err != nil {
		return nil, err
	}
	if s.refreshTime, err = register(reg, s.refreshTime); err != nil {
		return nil, err
	}
	if s.lastSuccess, err = register(reg, s.lastSuccess); err != nil {
		return nil, err
	}
	if s.slots, err = register(reg, s.slots); err != nil {
		return nil, err
	}
	if s.exceptions, err = register(reg, s.exceptions); err != nil {
		return nil, err
	}
	if s.state, err = register(reg, s.state); err != nil {
		return nil, err
	}
	if s.nextOutage, err = register(reg, s.nextOutage); err != nil {
		return nil, err
	}
	if s.queryTime, err = register(reg, s.queryTime); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRefresh counts the attempt and updates the snapshot gauges on success.
func (s *PromSink) RecordRefresh(ev coremetrics.RefreshEvent) error {
	s.refreshes.WithLabelValues(ev.Provider, strconv.FormatBool(ev.Success)).Inc()
	s.refreshTime.WithLabelValues(ev.Provider).Observe(ev.Duration.Seconds())
	if ev.Success {
		s.lastSuccess.WithLabelValues(ev.Provider).Set(float64(ev.Time.Unix()))
		s.slots.WithLabelValues(ev.Provider).Set(float64(ev.WeeklySlots))
		s.exceptions.WithLabelValues(ev.Provider).Set(float64(ev.ExceptionDays))
	}
	return nil
}

// RecordState sets the one-hot state gauge and the next outage timestamp.
func (s *PromSink) RecordState(ev coremetrics.StateEvent) error {
	for _, st := range promStates {
		v := 0.0
		if st == ev.State {
			v = 1
		}
		s.state.WithLabelValues(ev.Group, st).Set(v)
	}
	next := 0.0
	if !ev.NextOutage.IsZero() {
		next = float64(ev.NextOutage.Unix())
	}
	s.nextOutage.WithLabelValues(ev.Group).Set(next)
	return nil
}

// RecordQuery observes the query latency.
func (s *PromSink) RecordQuery(ev coremetrics.QueryEvent) error {
	s.queryTime.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
	return nil
}
