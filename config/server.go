package config

import (
	"fmt"
	"time"
)

// ServerConfig defines the HTTP listener serving the form and the JSON API.
type ServerConfig struct {
	Address                string `json:"address"`
	Title                  string `json:"title"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `json:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.Title == "" {
		c.Title = "EV Battery Health Predictor"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 15
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
