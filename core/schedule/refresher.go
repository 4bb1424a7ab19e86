package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/outages/core/logger"
	"github.com/kilianp07/outages/core/metrics"
	"github.com/kilianp07/outages/core/monitoring"
	"github.com/kilianp07/outages/internal/eventbus"
)

// RefresherOptions wires the optional collaborators of a Refresher.
type RefresherOptions struct {
	Interval  time.Duration
	Persister Persister
	Bus       *eventbus.TypedBus[*Snapshot]
	Metrics   metrics.MetricsSink
	Logger    logger.Logger
	Now       func() time.Time
}

// Refresher periodically fetches from a provider and installs the parsed
// snapshot.
type Refresher struct {
	provider Provider
	parser   *Parser
	store    *Store
	persist  Persister
	bus      *eventbus.TypedBus[*Snapshot]
	metrics  metrics.MetricsSink
	log      logger.Logger
	interval time.Duration
	now      func() time.Time
}

// NewRefresher creates a Refresher. Interval defaults to 15 minutes.
func NewRefresher(p Provider, parser *Parser, store *Store, opts RefresherOptions) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Refresher{
		provider: p,
		parser:   parser,
		store:    store,
		persist:  opts.Persister,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		log:      logger.OrNop(opts.Logger),
		interval: opts.Interval,
		now:      opts.Now,
	}
}

// Restore installs the persisted snapshot, if any. It is meant to run once
// at startup before the first fetch.
func (r *Refresher) Restore(ctx context.Context) error {
	if r.persist == nil {
		return nil
	}
	snap, err := r.persist.Latest(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if snap == nil {
		return nil
	}
	if r.store.Load() == nil {
		r.store.Swap(snap)
		r.log.Infof("restored snapshot from %s fetched at %s", snap.Provider, snap.FetchedAt.Format(time.RFC3339))
		r.publish(snap)
	}
	return nil
}

// Refresh performs one fetch. On failure the current snapshot is kept and
// the error is returned.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := r.now()
	ev := metrics.RefreshEvent{Provider: r.provider.Name(), Time: start}

	raw, err := r.provider.Fetch(ctx)
	if err == nil && raw.Empty() {
		err = ErrNoData
	}
	if err != nil {
		err = fmt.Errorf("fetch %s: %w", r.provider.Name(), err)
		ev.Error = err.Error()
		ev.Duration = r.now().Sub(start)
		r.record(ev)
		monitoring.CaptureException(err, map[string]string{"provider": r.provider.Name()})
		if r.store.Load() != nil {
			r.log.Warnf("%v; keeping last snapshot", err)
		}
		return err
	}

	snap := r.parser.Snapshot(r.provider.Name(), raw, r.now())
	r.store.Swap(snap)
	if r.persist != nil {
		if err := r.persist.Save(ctx, snap); err != nil {
			r.log.Errorf("persist snapshot: %v", err)
			monitoring.CaptureException(err, map[string]string{"provider": r.provider.Name(), "stage": "persist"})
		}
	}
	r.publish(snap)

	ev.Success = true
	ev.Duration = r.now().Sub(start)
	ev.WeeklySlots = snap.SlotCount()
	ev.ExceptionDays = len(snap.Exceptions)
	ev.Groups = len(snap.Groups())
	r.record(ev)
	r.log.Debugw("schedule refreshed", map[string]any{
		"provider":   ev.Provider,
		"slots":      ev.WeeklySlots,
		"exceptions": ev.ExceptionDays,
		"groups":     ev.Groups,
	})
	return nil
}

// Start refreshes immediately and then on every tick until ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	defer monitoring.Recover()
	if err := r.Refresh(ctx); err != nil {
		r.log.Errorf("initial refresh: %v", err)
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				r.log.Errorf("refresh: %v", err)
			}
		}
	}
}

func (r *Refresher) publish(snap *Snapshot) {
	if r.bus != nil {
		r.bus.Publish(snap)
	}
}

func (r *Refresher) record(ev metrics.RefreshEvent) {
	if err := r.metrics.RecordRefresh(ev); err != nil {
		r.log.Warnf("record refresh metrics: %v", err)
	}
}
