package battery

// FeatureCount is the number of columns the model expects.
const FeatureCount = 6

// Canonical column names, in model order.
const (
	FieldAge             = "age"
	FieldMileage         = "mileage"
	FieldChargingCycles  = "charging_cycles"
	FieldAvgTemp         = "avg_temp"
	FieldFastChargingPct = "fast_charging_pct"
	FieldCapacity        = "battery_capacity"
)

// FeatureNames lists the columns in the order the model was fitted against.
var FeatureNames = [FeatureCount]string{
	FieldAge,
	FieldMileage,
	FieldChargingCycles,
	FieldAvgTemp,
	FieldFastChargingPct,
	FieldCapacity,
}

// FeatureVector is one vehicle usage profile. It lives for a single request.
type FeatureVector struct {
	Age             float64 `json:"age"`               // years
	Mileage         float64 `json:"mileage"`           // km
	ChargingCycles  float64 `json:"charging_cycles"`   // count
	AvgTemp         float64 `json:"avg_temp"`          // °C
	FastChargingPct int     `json:"fast_charging_pct"` // percent of sessions
	BatteryCapacity float64 `json:"battery_capacity"`  // kWh
}

// Values returns the six columns in model order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.Age,
		f.Mileage,
		f.ChargingCycles,
		f.AvgTemp,
		float64(f.FastChargingPct),
		f.BatteryCapacity,
	}
}

// Fields maps column names to values, used for logging and error tags.
func (f FeatureVector) Fields() map[string]any {
	vals := f.Values()
	out := make(map[string]any, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = vals[i]
	}
	return out
}
