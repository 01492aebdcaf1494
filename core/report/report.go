// Package report defines the health report sent back over the JSON API, MQTT
// and the CLI.
package report

import (
	"errors"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// Report is the wire form of a prediction outcome. Exactly one of Health or
// Error is set.
type Report struct {
	RequestID        string                 `json:"request_id,omitempty"`
	VehicleID        string                 `json:"vehicle_id,omitempty"`
	Health           *float64               `json:"health,omitempty"`
	Display          string                 `json:"display,omitempty"`
	Band             string                 `json:"band,omitempty"`
	Label            string                 `json:"label,omitempty"`
	Message          string                 `json:"message,omitempty"`
	EstimatedRangeKM *float64               `json:"estimated_range_km,omitempty"`
	Features         *battery.FeatureVector `json:"features,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// FromResult builds the report of a successful prediction.
func FromResult(res prediction.Result) Report {
	health := res.Health
	rng := res.EstimatedRangeKM()
	fv := res.Features
	return Report{
		RequestID:        res.RequestID,
		Health:           &health,
		Display:          battery.FormatPercent(health),
		Band:             res.Band.String(),
		Label:            res.Band.Label(),
		Message:          res.Band.Message(),
		EstimatedRangeKM: &rng,
		Features:         &fv,
	}
}

// FromError builds the report of a failed request. The request ID of a
// *prediction.PredictionError is kept.
func FromError(err error) Report {
	r := Report{Error: err.Error()}
	var pe *prediction.PredictionError
	if errors.As(err, &pe) {
		r.RequestID = pe.RequestID
	}
	return r
}

// OK reports whether r carries a prediction.
func (r Report) OK() bool { return r.Error == "" && r.Health != nil }
