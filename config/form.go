package config

import (
	"fmt"

	"github.com/kilianp07/batteryhealth/core/battery"
)

// FormConfig selects the input domain enforced by the input surfaces.
type FormConfig struct {
	// MileageLimit is "standard" (500,000 km) or "extended" (50,000,000 km).
	MileageLimit battery.MileageLimit `json:"mileage_limit"`
}

// SetDefaults applies the standard mileage limit.
func (c *FormConfig) SetDefaults() {
	if c.MileageLimit == "" {
		c.MileageLimit = battery.MileageLimitStandard
	}
}

// Validate checks the mileage limit.
func (c FormConfig) Validate() error {
	if !c.MileageLimit.Valid() {
		return fmt.Errorf("unknown mileage_limit %q", c.MileageLimit)
	}
	return nil
}

// Bounds returns the input domain for this configuration.
func (c FormConfig) Bounds() battery.Bounds {
	return battery.NewBounds(c.MileageLimit)
}
