package mqtt

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/status"
)

func newTestPublisher(t *testing.T, mc *mockClient) *Publisher {
	t.Helper()
	restore := useMock(mc)
	t.Cleanup(restore)
	p, err := NewPublisher(Config{Enabled: true, Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	return p
}

func TestPublishStatusAnnouncesOnce(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	st := status.Status{
		Group: "1.1",
		State: status.StateOutage,
		Current: &model.OutageEvent{
			Start: start, End: start.Add(time.Hour), Label: model.LabelDefinite,
		},
	}
	require.NoError(t, p.PublishStatus(st))
	require.NoError(t, p.PublishStatus(st))

	discovery := 0
	for _, topic := range mc.topics() {
		if strings.HasPrefix(topic, "homeassistant/") {
			discovery++
		}
	}
	assert.Equal(t, len(sensors), discovery, "discovery is sent once per group")

	cfgMsg, ok := mc.last("homeassistant/sensor/outages_1_1/state/config")
	require.True(t, ok)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(cfgMsg.payload, &cfg))
	assert.Equal(t, "outages/1.1/state", cfg["state_topic"])
	assert.Equal(t, "outages_1_1_state", cfg["unique_id"])
	assert.Equal(t, "outages/availability", cfg["availability_topic"])

	stateMsg, ok := mc.last("outages/1.1/state")
	require.True(t, ok)
	assert.True(t, stateMsg.retained)
	var payload StatePayload
	require.NoError(t, json.Unmarshal(stateMsg.payload, &payload))
	assert.Equal(t, status.StateOutage, payload.State)
	assert.Equal(t, model.LabelDefinite, payload.CurrentLabel)
	require.NotNil(t, payload.CurrentEnd)
	assert.True(t, start.Add(time.Hour).Equal(*payload.CurrentEnd))
}

func TestPublishEvents(t *testing.T) {
	mc := &mockClient{}
	p := newTestPublisher(t, mc)

	require.NoError(t, p.PublishEvents("2.1", nil))
	msg, ok := mc.last("outages/2.1/events")
	require.True(t, ok)
	assert.JSONEq(t, `{"events":[]}`, string(msg.payload))
}

func TestStatePayloadFallsBackToFetchTime(t *testing.T) {
	fetched := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := model.OutageEvent{Start: fetched.Add(time.Hour), End: fetched.Add(2 * time.Hour), Label: model.LabelDefinite}
	st := status.Status{State: status.StateNormal, NextOutage: &next}.WithSchedule(time.Time{}, fetched)
	p := statePayload(st)
	require.NotNil(t, p.UpdatedOn)
	assert.Equal(t, fetched, *p.UpdatedOn)
	require.NotNil(t, p.NextOutageEnd)
	assert.Equal(t, next.End, *p.NextOutageEnd)
	assert.Nil(t, p.CurrentEnd)
}

func TestObjectID(t *testing.T) {
	assert.Equal(t, "1_1", objectID("1.1"))
	assert.Equal(t, "a_b_c", objectID("a/b c"))
}
