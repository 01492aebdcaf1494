package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Default topics.
const (
	DefaultRequestTopic   = "battery/+/predict"
	DefaultResponsePrefix = "battery"
)

// Config defines the broker connection and the prediction topics.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	// AuthMethod is "username_password", "certificate" or "both".
	AuthMethod string `json:"auth_method"`
	QoS        byte   `json:"qos"`
	// RequestTopic may contain one "+" wildcard standing for the vehicle ID.
	RequestTopic string `json:"request_topic"`
	// Responses go to <ResponsePrefix>/<vehicle>/health.
	ResponsePrefix string      `json:"response_prefix"`
	LWTTopic       string      `json:"lwt_topic"`
	LWTPayload     string      `json:"lwt_payload"`
	MaxRetries     int         `json:"max_retries"`
	BackoffMS      int         `json:"backoff_ms"`
	TLSConfig      *tls.Config `json:"-"`
}

// SetDefaults applies default topics and retry settings.
func (c *Config) SetDefaults() {
	if c.RequestTopic == "" {
		c.RequestTopic = DefaultRequestTopic
	}
	if c.ResponsePrefix == "" {
		c.ResponsePrefix = DefaultResponsePrefix
	}
	if c.ClientID == "" {
		c.ClientID = "battery-health"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings of an enabled adapter.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("invalid qos %d", c.QoS)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewClientOptions builds paho client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	// Handlers publish from their own goroutine; ordered delivery would hold
	// the router while they run.
	opts.SetOrderMatters(false)
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
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.QoS, false)
	}
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
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("no certificates in %s", c.CABundle)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
