package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/casesched/core/metrics"
	"github.com/kilianp07/casesched/infra/logger"
)

// Config defines the broker connection and the topic run summaries are
// published to.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Topic      string `json:"topic"`
	QoS        byte   `json:"qos"`
	Retain     bool   `json:"retain"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	TimeoutMS  int    `json:"timeout_ms"`
}

// SetDefaults fills the topic, client id and timeout.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "casesched/runs"
	}
	if c.ClientID == "" {
		c.ClientID = "casesched-" + uuid.NewString()
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
}

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Notifier publishes each run summary as JSON so downstream jobs can pick
// up a fresh output file.
type Notifier struct {
	cli     pahoClient
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logger.Logger
}

// NewNotifier connects to the broker.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	n := &Notifier{
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		log:     logger.New("mqtt_notifier"),
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		n.log.Errorf("connection lost: %v", err)
	}
	c := newMQTTClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(n.timeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	n.cli = c
	n.log.Infof("connected to %s", cfg.Broker)
	return n, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetConnectTimeout(time.Duration(cfg.TimeoutMS) * time.Millisecond)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the CA bundle and, when both are set, the client
// certificate pair.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CABundle != "" {
		caBytes, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("ca bundle %s holds no certificates", c.CABundle)
		}
		cfg.RootCAs = pool
	}
	if c.ClientCert != "" || c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// RecordRun publishes the summary and waits for the broker to accept it.
func (n *Notifier) RecordRun(s coremetrics.RunSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tok := n.cli.Publish(n.topic, n.qos, n.retain, payload)
	if !tok.WaitTimeout(n.timeout) {
		return fmt.Errorf("publish to %s: timeout", n.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.topic, err)
	}
	n.log.Debugf("run %s published to %s", s.RunID, n.topic)
	return nil
}

// Close disconnects from the broker.
func (n *Notifier) Close() error {
	n.cli.Disconnect(250)
	return nil
}
