package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/outages/core/metrics"
)

func TestPromSinkRecordRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, sink.RecordRefresh(coremetrics.RefreshEvent{
		Provider: "yasno", Success: true, Duration: 200 * time.Millisecond,
		WeeklySlots: 12, ExceptionDays: 2, Time: now,
	}))
	require.NoError(t, sink.RecordRefresh(coremetrics.RefreshEvent{Provider: "yasno", Error: "boom", Time: now.Add(time.Minute)}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.refreshes.WithLabelValues("yasno", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.refreshes.WithLabelValues("yasno", "false")))
	assert.Equal(t, 12.0, testutil.ToFloat64(sink.slots.WithLabelValues("yasno")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.exceptions.WithLabelValues("yasno")))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(sink.lastSuccess.WithLabelValues("yasno")), "failures keep the last success time")
}

func TestPromSinkRecordState(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	next := time.Unix(1700003600, 0)
	require.NoError(t, sink.RecordState(coremetrics.StateEvent{Group: "1.1", State: "outage", NextOutage: next}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.state.WithLabelValues("1.1", "outage")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.state.WithLabelValues("1.1", "normal")))
	assert.Equal(t, float64(next.Unix()), testutil.ToFloat64(sink.nextOutage.WithLabelValues("1.1")))

	require.NoError(t, sink.RecordState(coremetrics.StateEvent{Group: "1.1", State: "normal"}))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.state.WithLabelValues("1.1", "outage")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.nextOutage.WithLabelValues("1.1")))
}

func TestPromSinkSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	assert.Same(t, a.refreshes, b.refreshes)
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordQuery(coremetrics.QueryEvent{Kind: "between", Duration: time.Millisecond}))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "outages_query_duration_seconds_count"))
}
