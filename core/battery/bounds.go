package battery

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is wrapped by RangeError.
var ErrOutOfRange = errors.New("value out of range")

// Mileage upper bounds used by the two form variants.
const (
	MileageMaxStandard = 500_000.0
	MileageMaxExtended = 50_000_000.0
)

// MileageLimit selects which mileage upper bound the input surfaces enforce.
type MileageLimit string

const (
	MileageLimitStandard MileageLimit = "standard"
	MileageLimitExtended MileageLimit = "extended"
)

// Max returns the upper bound in km. Unknown values fall back to standard.
func (m MileageLimit) Max() float64 {
	if m == MileageLimitExtended {
		return MileageMaxExtended
	}
	return MileageMaxStandard
}

// Valid reports whether m is a known limit.
func (m MileageLimit) Valid() bool {
	return m == MileageLimitStandard || m == MileageLimitExtended
}

// FieldBounds documents one input control.
type FieldBounds struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
	Integer bool    `json:"integer,omitempty"`
}

// Contains reports whether v is a finite value inside [Min, Max].
func (b FieldBounds) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= b.Min && v <= b.Max
}

// RangeError reports the first field outside its bounds.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s=%g outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Bounds holds the input domain of every column, in model order.
type Bounds [FeatureCount]FieldBounds

// NewBounds returns the documented input domain for the given mileage limit.
// The extended variant also starts the mileage control at 10,000 km.
func NewBounds(limit MileageLimit) Bounds {
	mileageDefault := 50_000.0
	if limit == MileageLimitExtended {
		mileageDefault = 10_000.0
	}
	return Bounds{
		{Name: FieldAge, Label: "Vehicle Age", Unit: "years", Min: 0, Max: 20, Default: 3, Step: 0.1},
		{Name: FieldMileage, Label: "Mileage", Unit: "km", Min: 0, Max: limit.Max(), Default: mileageDefault, Step: 100},
		{Name: FieldChargingCycles, Label: "Charging Cycles", Unit: "cycles", Min: 0, Max: 3000, Default: 800, Step: 1},
		{Name: FieldAvgTemp, Label: "Average Operating Temperature", Unit: "°C", Min: -50, Max: 100, Default: 25, Step: 0.5},
		{Name: FieldFastChargingPct, Label: "Fast Charging", Unit: "%", Min: 0, Max: 100, Default: 30, Step: 1, Integer: true},
		{Name: FieldCapacity, Label: "Battery Capacity", Unit: "kWh", Min: 10, Max: 200, Default: 75, Step: 1},
	}
}

// Lookup returns the bounds of the named field.
func (b Bounds) Lookup(name string) (FieldBounds, bool) {
	for _, f := range b {
		if f.Name == name {
			return f, true
		}
	}
	return FieldBounds{}, false
}

// Defaults returns the vector the input form starts with.
func (b Bounds) Defaults() FeatureVector {
	return FeatureVector{
		Age:             b[0].Default,
		Mileage:         b[1].Default,
		ChargingCycles:  b[2].Default,
		AvgTemp:         b[3].Default,
		FastChargingPct: int(b[4].Default),
		BatteryCapacity: b[5].Default,
	}
}

// Check validates f against the input domain. It is applied by the input
// surfaces only; the predictor accepts whatever it is given.
func (b Bounds) Check(f FeatureVector) error {
	for i, v := range f.Values() {
		if !b[i].Contains(v) {
			return &RangeError{Field: b[i].Name, Value: v, Min: b[i].Min, Max: b[i].Max}
		}
	}
	return nil
}
