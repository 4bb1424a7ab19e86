package metrics_test

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/outages/core/factory"
	metrics "github.com/kilianp07/outages/core/metrics"
	_ "github.com/kilianp07/outages/infra/metrics"
)

/*
TestNewMetricsSink validates NewMetricsSink with zero, one, and multiple configs.

	Cases:
	- no config -> NopSink
	- builtin nop sink
	- two configs -> MultiSink with two sub-sinks
	- unknown type -> error
*/
func TestNewMetricsSink(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create default: %v", err)
	}
	if _, ok := s.(metrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}

	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}}); err != nil {
		t.Fatalf("create nop: %v", err)
	}

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*metrics.MultiSink)
	if !ok {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if len(m.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(m.Sinks))
	}

	if _, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestMetricsConfigDecode(t *testing.T) {
	var fromYAML metrics.Config
	if err := yaml.Unmarshal([]byte("sinks:\n  - type: nop\n  - type: nop\n"), &fromYAML); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if len(fromYAML.Sinks) != 2 {
		t.Fatalf("expected 2 sinks, got %d", len(fromYAML.Sinks))
	}

	var fromJSON metrics.Config
	if err := json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &fromJSON); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := metrics.NewMetricsSink(fromJSON.Sinks); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
