package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/outages/core/monitoring"
	"github.com/kilianp07/outages/infra/logger"
)

// Availability payloads published on the availability topic.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled         bool        `json:"enabled"`
	Broker          string      `json:"broker"`
	ClientID        string      `json:"client_id"`
	Username        string      `json:"username"`
	Password        string      `json:"password"`
	UseTLS          bool        `json:"use_tls"`
	ClientCert      string      `json:"client_cert"`
	ClientKey       string      `json:"client_key"`
	CABundle        string      `json:"ca_bundle"`
	AuthMethod      string      `json:"auth_method"`
	QoS             byte        `json:"qos"`
	TopicPrefix     string      `json:"topic_prefix"`
	DiscoveryPrefix string      `json:"discovery_prefix"`
	MaxRetries      int         `json:"max_retries"`
	BackoffMS       int         `json:"backoff_ms"`
	TLSConfig       *tls.Config `json:"-"`
}

// SetDefaults fills in topic prefixes, retry policy and a random client id.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "outages-" + uuid.NewString()
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "outages"
	}
	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = "homeassistant"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings needed to connect.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range", c.QoS)
	}
	return nil
}

// AvailabilityTopic is where the online/offline state and the last will go.
func (c Config) AvailabilityTopic() string {
	return strings.TrimSuffix(c.TopicPrefix, "/") + "/availability"
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// client wraps the paho connection with retrying, retained publishes.
type client struct {
	cli        pahoClient
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

func dial(cfg Config, log logger.Logger) (*client, error) {
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := &client{
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}
	availability := cfg.AvailabilityTopic()
	opts.OnConnect = func(pc paho.Client) {
		log.Infof("MQTT connected")
		if token := pc.Publish(availability, cfg.QoS, true, PayloadOnline); token.Wait() && token.Error() != nil {
			log.Errorf("publish availability: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	pc := newMQTTClient(opts)
	if token := pc.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	c.cli = pc
	return c, nil
}

// NewClientOptions builds paho client options from Config. The last will
// marks the service offline on the availability topic.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(cfg.AvailabilityTopic(), PayloadOffline, cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// publish sends a retained message, retrying with exponential backoff.
func (c *client) publish(topic string, payload []byte) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token := c.cli.Publish(topic, c.qos, true, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		c.log.Errorf("publish %s attempt %d failed: %v", topic, attempt+1, err)
		if attempt < c.maxRetries {
			time.Sleep(c.backoff * time.Duration(1<<attempt))
		}
	}
	coremon.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return fmt.Errorf("publish %s: %w", topic, err)
}

func (c *client) close(availability string) {
	if c.cli == nil || !c.cli.IsConnected() {
		return
	}
	token := c.cli.Publish(availability, c.qos, true, PayloadOffline)
	token.WaitTimeout(time.Second)
	c.cli.Disconnect(250)
}
