package battery

import "fmt"

// Band is the qualitative health class shown next to the percentage.
type Band int

const (
	BandCritical Band = iota
	BandFair
	BandExcellent
)

// Default thresholds. A health below DefaultCriticalBelow is critical, one at
// or above DefaultExcellentFrom is excellent.
const (
	DefaultCriticalBelow = 40.0
	DefaultExcellentFrom = 70.0
)

// DefaultFairIncludesUpper keeps a health equal to ExcellentFrom in the
// excellent band.
const DefaultFairIncludesUpper = false

func (b Band) String() string {
	switch b {
	case BandCritical:
		return "critical"
	case BandFair:
		return "fair"
	case BandExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// Label is the display name of the band.
func (b Band) Label() string {
	switch b {
	case BandCritical:
		return "Critical"
	case BandFair:
		return "Fair"
	case BandExcellent:
		return "Excellent"
	default:
		return "Unknown"
	}
}

// Message is the sentence shown under the result.
func (b Band) Message() string {
	switch b {
	case BandCritical:
		return "Battery health is critical. Plan a certified diagnostic soon."
	case BandFair:
		return "Battery is in fair condition. Limit fast charging and extreme temperatures."
	case BandExcellent:
		return "Battery is in good condition."
	default:
		return ""
	}
}

// CSSClass is the style hook used by the web template.
func (b Band) CSSClass() string { return "band-" + b.String() }

// BandConfig holds the classification thresholds.
type BandConfig struct {
	CriticalBelow float64 `json:"critical_below"`
	ExcellentFrom float64 `json:"excellent_from"`
	// FairIncludesUpper places a health equal to ExcellentFrom in the fair band.
	FairIncludesUpper bool `json:"fair_includes_upper"`
}

// DefaultBandConfig returns the <40 / 40-70 / >=70 convention.
func DefaultBandConfig() BandConfig {
	return BandConfig{
		CriticalBelow:     DefaultCriticalBelow,
		ExcellentFrom:     DefaultExcellentFrom,
		FairIncludesUpper: DefaultFairIncludesUpper,
	}
}

// SetDefaults fills each threshold left unset (zero) independently.
func (c *BandConfig) SetDefaults() {
	if c.CriticalBelow == 0 {
		c.CriticalBelow = DefaultCriticalBelow
	}
	if c.ExcellentFrom == 0 {
		c.ExcellentFrom = DefaultExcellentFrom
	}
}

// Validate checks that the thresholds are ordered.
func (c BandConfig) Validate() error {
	if c.CriticalBelow > c.ExcellentFrom {
		return fmt.Errorf("critical_below %g greater than excellent_from %g", c.CriticalBelow, c.ExcellentFrom)
	}
	return nil
}

// Classify maps a health percentage to its band. Values outside [0,100]
// are classified like any other number.
func (c BandConfig) Classify(health float64) Band {
	switch {
	case health < c.CriticalBelow:
		return BandCritical
	case health < c.ExcellentFrom:
		return BandFair
	case health == c.ExcellentFrom && c.FairIncludesUpper:
		return BandFair
	case health >= c.ExcellentFrom:
		return BandExcellent
	default:
		// NaN
		return BandCritical
	}
}

// EstimatedRangeKM derives a display-only driving range from capacity and
// health, assuming 5 km per kWh.
func EstimatedRangeKM(capacityKWh, health float64) float64 {
	return capacityKWh * 5 * (health / 100)
}

// FormatPercent renders a health value the way the result page shows it.
func FormatPercent(health float64) string {
	return fmt.Sprintf("%.2f%%", health)
}
