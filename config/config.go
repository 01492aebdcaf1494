package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/factory"
	"github.com/kilianp07/batteryhealth/core/metrics"
	"github.com/kilianp07/batteryhealth/infra/monitoring"
	"github.com/kilianp07/batteryhealth/infra/mqtt"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: K_SERVER__ADDRESS=:9000.
const EnvPrefix = "K_"

type Config struct {
	Model   factory.ModuleConfig `json:"model"`
	Server  ServerConfig         `json:"server"`
	Form    FormConfig           `json:"form"`
	Bands   battery.BandConfig   `json:"bands"`
	Metrics metrics.Config       `json:"metrics"`
	MQTT    mqtt.Config          `json:"mqtt"`
	Sentry  monitoring.Config    `json:"sentry"`
}

// Load reads a YAML or JSON file, applies environment overrides, defaults
// and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Form.SetDefaults()
	c.Bands.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Model.Kind == "" {
		return fmt.Errorf("model.kind is required")
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Form.Validate(); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if err := c.Bands.Validate(); err != nil {
		return fmt.Errorf("bands: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}
