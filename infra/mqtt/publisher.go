// Package mqtt provides the Paho-backed publisher delivering demand-response
// signals to the device fleet, plus a mock for tests.
package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/karimcy/SEMDR/core/signals"
	"github.com/karimcy/SEMDR/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker" koanf:"broker"`
	ClientID   string `json:"client_id" koanf:"client_id"`
	Username   string `json:"username" koanf:"username"`
	Password   string `json:"password" koanf:"password"`
	QoS        byte   `json:"qos" koanf:"qos"`
	UseTLS     bool   `json:"use_tls" koanf:"use_tls"`
	ClientCert string `json:"client_cert" koanf:"client_cert"`
	ClientKey  string `json:"client_key" koanf:"client_key"`
	TimeoutMS  int    `json:"timeout_ms" koanf:"timeout_ms"`
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

// PahoPublisher implements signals.Publisher over an MQTT broker with JSON
// payloads.
type PahoPublisher struct {
	cli     pahoClient
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// NewPahoPublisher connects to the broker and returns a ready publisher.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("mqtt: load cert: %w", err)
		}
		opts.SetTLSConfig(&tls.Config{Certificates: []tls.Certificate{cert}})
	}

	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	c := newMQTTClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}
	return &PahoPublisher{cli: c, qos: cfg.QoS, timeout: timeout, log: log}, nil
}

func (p *PahoPublisher) PublishSignal(sig signals.DemandResponseSignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("mqtt: marshal signal %s: %w", sig.SignalID, err)
	}
	token := p.cli.Publish(sig.Topic(), p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt: publish %s timed out", sig.SignalID)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", sig.SignalID, err)
	}
	p.log.Debugf("signal %s published to %s", sig.SignalID, sig.Topic())
	return nil
}

func (p *PahoPublisher) Close() error {
	p.cli.Disconnect(250)
	return nil
}

// MockPublisher records published signals for tests.
type MockPublisher struct {
	mu      sync.Mutex
	Signals []signals.DemandResponseSignal
	Err     error
}

func (m *MockPublisher) PublishSignal(sig signals.DemandResponseSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Signals = append(m.Signals, sig)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns a copy of the recorded signals.
func (m *MockPublisher) Published() []signals.DemandResponseSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]signals.DemandResponseSignal(nil), m.Signals...)
}
