package metrics

import "github.com/kilianp07/batteryhealth/core/factory"

// DefaultPrometheusAddr is where /metrics is served when a prometheus sink is configured.
const DefaultPrometheusAddr = ":9100"

// Config defines the metrics sinks and the Prometheus listener.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr"`
}

// SetDefaults applies the default listener address.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = DefaultPrometheusAddr
	}
}

// PrometheusEnabled reports whether a prometheus sink is configured.
func (c Config) PrometheusEnabled() bool {
	for _, s := range c.Sinks {
		if s.Kind == "prometheus" {
			return true
		}
	}
	return false
}
