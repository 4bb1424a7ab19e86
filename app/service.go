package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apioutages "github.com/kilianp07/outages/api/outages"
	"github.com/kilianp07/outages/config"
	coremetrics "github.com/kilianp07/outages/core/metrics"
	coremon "github.com/kilianp07/outages/core/monitoring"
	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/schedule"
	"github.com/kilianp07/outages/core/status"
	"github.com/kilianp07/outages/infra/logger"
	"github.com/kilianp07/outages/infra/metrics"
	"github.com/kilianp07/outages/infra/monitoring"
	"github.com/kilianp07/outages/infra/mqtt"
	_ "github.com/kilianp07/outages/infra/source" // registers providers
	"github.com/kilianp07/outages/infra/store"
	"github.com/kilianp07/outages/internal/eventbus"
)

// StatusPublisher pushes derived status and upcoming events to the home
// automation host.
type StatusPublisher interface {
	PublishStatus(st status.Status) error
	PublishEvents(group string, events []model.OutageEvent) error
	Close()
}

// Deps overrides collaborators normally built from the configuration.
type Deps struct {
	Provider  schedule.Provider
	Publisher StatusPublisher
	Persister schedule.Persister
	Now       func() time.Time
}

// Service ties the refresher, the query API and the MQTT publisher together.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	loc       *time.Location
	now       func() time.Time
	store     *schedule.Store
	refresher *schedule.Refresher
	bus       *eventbus.TypedBus[*schedule.Snapshot]
	sink      coremetrics.MetricsSink
	states    coremetrics.StateRecorder
	pub       StatusPublisher
	persist   schedule.Persister
	api       *apioutages.Handler
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	return NewWithDeps(cfg, Deps{})
}

// NewWithDeps creates a Service, using the collaborators set in deps instead
// of building them from cfg.
func NewWithDeps(cfg *config.Config, deps Deps) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry, cfg.Schedule.Group)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	provider := deps.Provider
	if provider == nil {
		if provider, err = schedule.NewProvider(cfg.Schedule.Provider); err != nil {
			return nil, fmt.Errorf("schedule provider: %w", err)
		}
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	persist := deps.Persister
	if persist == nil && cfg.Storage.Backend == config.StorageSQLite {
		db, err := store.NewSQLiteStore(cfg.Storage.Path, 0)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		persist = db
	}

	pub := deps.Publisher
	if pub == nil && cfg.MQTT.Enabled {
		p, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		pub = p
	}

	snapshots := schedule.NewStore()
	bus := eventbus.NewTyped[*schedule.Snapshot]()
	parser := schedule.NewParser(cfg.Schedule.SlotTypes, logger.New("schedule-parser"))
	refresher := schedule.NewRefresher(provider, parser, snapshots, schedule.RefresherOptions{
		Interval:  cfg.Schedule.RefreshInterval,
		Persister: persist,
		Bus:       bus,
		Metrics:   sink,
		Logger:    logger.New("refresher"),
		Now:       deps.Now,
	})
	api := apioutages.NewHandler(snapshots, apioutages.Options{
		Group:     cfg.Schedule.Group,
		Location:  loc,
		Horizon:   cfg.Schedule.Horizon,
		MaxWindow: cfg.HTTP.MaxWindow,
		Metrics:   coremetrics.AsQueryRecorder(sink),
		Logger:    logger.New("api"),
		Now:       deps.Now,
	})

	return &Service{
		cfg:       cfg,
		log:       logg,
		loc:       loc,
		now:       deps.Now,
		store:     snapshots,
		refresher: refresher,
		bus:       bus,
		sink:      sink,
		states:    coremetrics.AsStateRecorder(sink),
		pub:       pub,
		persist:   persist,
		api:       api,
	}, nil
}

// Store exposes the snapshot store, mainly for one-shot CLI queries.
func (s *Service) Store() *schedule.Store { return s.store }

// Refresher exposes the refresher.
func (s *Service) Refresher() *schedule.Refresher { return s.refresher }

// Location is the configured schedule time zone.
func (s *Service) Location() *time.Location { return s.loc }

// Handler returns the HTTP routes served by Run.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.api.Register(mux)
	if s.cfg.Metrics.Prometheus {
		mux.Handle("/metrics", metrics.Handler(nil))
	}
	return mux
}

// Run restores the last snapshot, starts polling and the HTTP server, and
// republishes the group status on every new snapshot and every status
// interval. It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()
	if err := s.refresher.Restore(ctx); err != nil {
		s.log.Warnf("%v", err)
	}
	updates := s.bus.Subscribe()
	defer s.bus.Unsubscribe(updates)

	go func() {
		if err := s.refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorf("refresher: %v", err)
		}
	}()
	if s.cfg.HTTP.Enabled() {
		go s.serveHTTP(ctx)
	}

	ticker := time.NewTicker(s.cfg.Schedule.StatusInterval)
	defer ticker.Stop()
	s.publishSafe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			s.publishSafe()
		case <-ticker.C:
			s.publishSafe()
		}
	}
}

func (s *Service) publishSafe() {
	if _, err := s.PublishStatus(); err != nil && !errors.Is(err, schedule.ErrNoData) {
		s.log.Errorf("publish status: %v", err)
		coremon.CaptureException(err, map[string]string{"module": "service", "group": s.cfg.Schedule.Group})
	}
}

// PublishStatus derives the status of the configured group from the current
// snapshot, records it and sends it with the upcoming events to the
// publisher.
func (s *Service) PublishStatus() (status.Status, error) {
	group := s.cfg.Schedule.Group
	tl, snap, err := s.store.Timeline(group, s.loc)
	if err != nil {
		return status.Status{}, err
	}
	now := s.now()
	st := status.Derive(tl, now, s.cfg.Schedule.Horizon).WithSchedule(snap.UpdatedOn, snap.FetchedAt)

	ev := coremetrics.StateEvent{Group: group, State: string(st.State), Time: now}
	if st.NextOutage != nil {
		ev.NextOutage = st.NextOutage.Start
	}
	if st.NextConnectivity != nil {
		ev.NextPower = *st.NextConnectivity
	}
	if err := s.states.RecordState(ev); err != nil {
		s.log.Warnf("record state: %v", err)
	}

	if s.pub == nil {
		return st, nil
	}
	if err := s.pub.PublishStatus(st); err != nil {
		return st, fmt.Errorf("publish status: %w", err)
	}
	day := model.DateOf(now.In(s.loc)).Midnight(s.loc)
	events := tl.EventsBetween(day, now.Add(s.cfg.Schedule.Horizon))
	if err := s.pub.PublishEvents(group, events); err != nil {
		return st, fmt.Errorf("publish events: %w", err)
	}
	return st, nil
}

func (s *Service) serveHTTP(ctx context.Context) {
	defer coremon.Recover()
	srv := &http.Server{Addr: s.cfg.HTTP.Address, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("serving API on %s", s.cfg.HTTP.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Errorf("http server: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.pub != nil {
		s.pub.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	var err error
	if c, ok := s.persist.(interface{ Close() error }); ok {
		err = c.Close()
	}
	coremon.Flush(2 * time.Second)
	return err
}
