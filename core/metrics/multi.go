package metrics

import "errors"

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRefresh forwards the event to every sink and joins their errors.
func (m *MultiSink) RecordRefresh(ev RefreshEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRefresh(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordState forwards state events to sinks that support them.
func (m *MultiSink) RecordState(ev StateEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(StateRecorder); ok {
			if err := rec.RecordState(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordQuery forwards query timings to sinks that support them.
func (m *MultiSink) RecordQuery(ev QueryEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(QueryRecorder); ok {
			if err := rec.RecordQuery(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that has a Close method.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
