package battery

import (
	"errors"
	"fmt"
)

// ErrMissingField is wrapped when a required column is absent from a payload.
var ErrMissingField = errors.New("missing field")

// Input is the wire form of a FeatureVector where every column is required.
// A nil field means the caller left it out; it is never defaulted to zero.
type Input struct {
	Age             *float64 `json:"age"`
	Mileage         *float64 `json:"mileage"`
	ChargingCycles  *float64 `json:"charging_cycles"`
	AvgTemp         *float64 `json:"avg_temp"`
	FastChargingPct *int     `json:"fast_charging_pct"`
	BatteryCapacity *float64 `json:"battery_capacity"`
}

// InputFrom returns an Input with every column of fv set.
func InputFrom(fv FeatureVector) Input {
	return Input{
		Age:             &fv.Age,
		Mileage:         &fv.Mileage,
		ChargingCycles:  &fv.ChargingCycles,
		AvgTemp:         &fv.AvgTemp,
		FastChargingPct: &fv.FastChargingPct,
		BatteryCapacity: &fv.BatteryCapacity,
	}
}

// FeatureVector converts in, reporting the first missing column in model order.
func (in Input) FeatureVector() (FeatureVector, error) {
	missing := func(name string) error { return fmt.Errorf("%w %s", ErrMissingField, name) }
	switch {
	case in.Age == nil:
		return FeatureVector{}, missing(FieldAge)
	case in.Mileage == nil:
		return FeatureVector{}, missing(FieldMileage)
	case in.ChargingCycles == nil:
		return FeatureVector{}, missing(FieldChargingCycles)
	case in.AvgTemp == nil:
		return FeatureVector{}, missing(FieldAvgTemp)
	case in.FastChargingPct == nil:
		return FeatureVector{}, missing(FieldFastChargingPct)
	case in.BatteryCapacity == nil:
		return FeatureVector{}, missing(FieldCapacity)
	}
	return FeatureVector{
		Age:             *in.Age,
		Mileage:         *in.Mileage,
		ChargingCycles:  *in.ChargingCycles,
		AvgTemp:         *in.AvgTemp,
		FastChargingPct: *in.FastChargingPct,
		BatteryCapacity: *in.BatteryCapacity,
	}, nil
}
