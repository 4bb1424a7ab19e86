package metrics

import "github.com/kilianp07/outages/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink creates a MetricsSink from the provided configuration.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// AsStateRecorder returns s as a StateRecorder, or a no-op one.
func AsStateRecorder(s MetricsSink) StateRecorder {
	if rec, ok := s.(StateRecorder); ok {
		return rec
	}
	return NopSink{}
}

// AsQueryRecorder returns s as a QueryRecorder, or a no-op one.
func AsQueryRecorder(s MetricsSink) QueryRecorder {
	if rec, ok := s.(QueryRecorder); ok {
		return rec
	}
	return NopSink{}
}
