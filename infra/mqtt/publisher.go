package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/outages/core/model"
	"github.com/kilianp07/outages/core/status"
	"github.com/kilianp07/outages/infra/logger"
)

// Publisher exposes group status to Home Assistant: discovery configs once
// per group, then retained state and event list payloads on every update.
type Publisher struct {
	cfg Config
	cli *client
	log logger.Logger

	mu         sync.Mutex
	discovered map[string]bool
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	cli, err := dial(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Publisher{cfg: cfg, cli: cli, log: log, discovered: make(map[string]bool)}, nil
}

// StatePayload is the JSON document on a group's state topic.
type StatePayload struct {
	State            status.State `json:"state"`
	CurrentLabel     string       `json:"current_label,omitempty"`
	CurrentEnd       *time.Time   `json:"current_end,omitempty"`
	NextOutage       *time.Time   `json:"next_outage,omitempty"`
	NextOutageEnd    *time.Time   `json:"next_outage_end,omitempty"`
	NextPossible     *time.Time   `json:"next_possible,omitempty"`
	NextConnectivity *time.Time   `json:"next_connectivity,omitempty"`
	UpdatedOn        *time.Time   `json:"updated_on,omitempty"`
}

func statePayload(st status.Status) StatePayload {
	p := StatePayload{
		State:            st.State,
		NextConnectivity: st.NextConnectivity,
		UpdatedOn:        st.ScheduleUpdatedOn,
	}
	if p.UpdatedOn == nil {
		p.UpdatedOn = st.ScheduleFetchedAt
	}
	if st.Current != nil {
		p.CurrentLabel = st.Current.Label
		p.CurrentEnd = &st.Current.End
	}
	if st.NextOutage != nil {
		p.NextOutage = &st.NextOutage.Start
		p.NextOutageEnd = &st.NextOutage.End
	}
	if st.NextPossible != nil {
		p.NextPossible = &st.NextPossible.Start
	}
	return p
}

// PublishStatus sends the state document, announcing the group first if
// needed.
func (p *Publisher) PublishStatus(st status.Status) error {
	if err := p.ensureDiscovery(st.Group); err != nil {
		return err
	}
	payload, err := json.Marshal(statePayload(st))
	if err != nil {
		return err
	}
	return p.cli.publish(p.stateTopic(st.Group), payload)
}

// PublishEvents sends the upcoming events of a group as a JSON list.
func (p *Publisher) PublishEvents(group string, events []model.OutageEvent) error {
	if events == nil {
		events = []model.OutageEvent{}
	}
	payload, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		return err
	}
	return p.cli.publish(p.eventsTopic(group), payload)
}

// Close marks the service offline and disconnects.
func (p *Publisher) Close() {
	p.cli.close(p.cfg.AvailabilityTopic())
}

func (p *Publisher) ensureDiscovery(group string) error {
	p.mu.Lock()
	done := p.discovered[group]
	p.mu.Unlock()
	if done {
		return nil
	}
	for _, s := range sensors {
		payload, err := json.Marshal(p.discoveryConfig(group, s))
		if err != nil {
			return err
		}
		if err := p.cli.publish(p.discoveryTopic(group, s), payload); err != nil {
			return err
		}
	}
	p.mu.Lock()
	p.discovered[group] = true
	p.mu.Unlock()
	p.log.Infof("announced %d sensors for group %s", len(sensors), group)
	return nil
}

type sensor struct {
	key         string
	name        string
	component   string
	template    string
	deviceClass string
	options     []string
}

var sensors = []sensor{
	{key: "state", name: "Electricity", component: "sensor", template: "{{ value_json.state }}", deviceClass: "enum",
		options: []string{string(status.StateNormal), string(status.StateOutage), string(status.StatePossible), string(status.StateEmergency)}},
	{key: "next_outage", name: "Next outage", component: "sensor", template: "{{ value_json.next_outage | default(None) }}", deviceClass: "timestamp"},
	{key: "next_possible", name: "Next possible outage", component: "sensor", template: "{{ value_json.next_possible | default(None) }}", deviceClass: "timestamp"},
	{key: "next_connectivity", name: "Next connectivity", component: "sensor", template: "{{ value_json.next_connectivity | default(None) }}", deviceClass: "timestamp"},
	{key: "updated_on", name: "Schedule updated", component: "sensor", template: "{{ value_json.updated_on | default(None) }}", deviceClass: "timestamp"},
	{key: "outage", name: "Power outage", component: "binary_sensor", template: "{{ 'ON' if value_json.state in ['outage', 'emergency'] else 'OFF' }}", deviceClass: "problem"},
}

func (p *Publisher) discoveryConfig(group string, s sensor) map[string]any {
	id := objectID(group)
	cfg := map[string]any{
		"name":                  s.name,
		"unique_id":             fmt.Sprintf("outages_%s_%s", id, s.key),
		"object_id":             fmt.Sprintf("outages_%s_%s", id, s.key),
		"state_topic":           p.stateTopic(group),
		"value_template":        s.template,
		"availability_topic":    p.cfg.AvailabilityTopic(),
		"payload_available":     PayloadOnline,
		"payload_not_available": PayloadOffline,
		"json_attributes_topic": p.eventsTopic(group),
		"device": map[string]any{
			"identifiers":  []string{"outages_" + id},
			"name":         "Outages " + group,
			"manufacturer": "outages",
		},
	}
	if s.deviceClass != "" {
		cfg["device_class"] = s.deviceClass
	}
	if len(s.options) > 0 {
		cfg["options"] = s.options
	}
	return cfg
}

func (p *Publisher) stateTopic(group string) string {
	return fmt.Sprintf("%s/%s/state", strings.TrimSuffix(p.cfg.TopicPrefix, "/"), group)
}

func (p *Publisher) eventsTopic(group string) string {
	return fmt.Sprintf("%s/%s/events", strings.TrimSuffix(p.cfg.TopicPrefix, "/"), group)
}

func (p *Publisher) discoveryTopic(group string, s sensor) string {
	return fmt.Sprintf("%s/%s/outages_%s/%s/config", strings.TrimSuffix(p.cfg.DiscoveryPrefix, "/"), s.component, objectID(group), s.key)
}

// objectID makes a group name safe for discovery ids.
func objectID(group string) string {
	return strings.NewReplacer(".", "_", "/", "_", " ", "_", "+", "_", "#", "_").Replace(group)
}
