// Package mqtt publishes engine results to an MQTT broker so downstream
// reporting systems can pick them up without polling for output files.
package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/resilience/infra/logger"
)

// Config defines the connection parameters for the results publisher.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
	Retain   bool   `json:"retain"`
	// TimeoutMS bounds connect and publish operations.
	TimeoutMS int `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "resilience-" + uuid.NewString()[:8]
	}
	if c.Topic == "" {
		c.Topic = "resilience/results"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 5000
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

// Publisher delivers result payloads to a topic.
type Publisher interface {
	Publish(payload []byte) error
	Close()
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

// PahoPublisher implements Publisher using Eclipse Paho.
type PahoPublisher struct {
	cli     pahoClient
	cfg     Config
	timeout time.Duration
	log     logger.Logger
}

// NewPahoPublisher connects to the MQTT broker.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(time.Duration(cfg.TimeoutMS) * time.Millisecond)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	token := cli.Connect()
	if !token.WaitTimeout(time.Duration(cfg.TimeoutMS) * time.Millisecond) {
		return nil, fmt.Errorf("connect timeout to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, err
	}
	return &PahoPublisher{cli: cli, cfg: cfg, timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond, log: log}, nil
}

// Publish sends the payload to the configured topic.
func (p *PahoPublisher) Publish(payload []byte) error {
	token := p.cli.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish timeout on %s", p.cfg.Topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	p.cli.Disconnect(250)
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Payloads [][]byte
	Fail     bool
}

// Publish records the payload or returns an error if configured to fail.
func (m *MockPublisher) Publish(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Payloads = append(m.Payloads, payload)
	return nil
}

// Close implements Publisher.
func (m *MockPublisher) Close() {}
