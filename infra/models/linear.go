package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/batteryhealth/core/battery"
)

var (
	// ErrCorruptArtifact is returned when an artifact cannot be decoded.
	ErrCorruptArtifact = errors.New("corrupt model artifact")
	// ErrIncompatibleArtifact is returned when an artifact does not match the feature layout.
	ErrIncompatibleArtifact = errors.New("incompatible model artifact")
	// ErrShape is returned when a row does not have one value per feature.
	ErrShape = errors.New("feature shape mismatch")
)

// LinearArtifact is the on-disk form of a linear regression model.
type LinearArtifact struct {
	Version      string    `json:"version,omitempty"`
	Features     []string  `json:"features,omitempty"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Means and Scales standardise each column before the dot product.
	Means  []float64 `json:"means,omitempty"`
	Scales []float64 `json:"scales,omitempty"`
}

// Validate checks the artifact against the battery feature layout.
func (a LinearArtifact) Validate() error {
	n := battery.FeatureCount
	if len(a.Coefficients) != n {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrIncompatibleArtifact, len(a.Coefficients), n)
	}
	if len(a.Features) > 0 {
		if len(a.Features) != n {
			return fmt.Errorf("%w: %d features, want %d", ErrIncompatibleArtifact, len(a.Features), n)
		}
		for i, name := range a.Features {
			if name != battery.FeatureNames[i] {
				return fmt.Errorf("%w: feature %d is %q, want %q", ErrIncompatibleArtifact, i, name, battery.FeatureNames[i])
			}
		}
	}
	if a.Means != nil && len(a.Means) != n {
		return fmt.Errorf("%w: %d means, want %d", ErrIncompatibleArtifact, len(a.Means), n)
	}
	if a.Scales != nil {
		if len(a.Scales) != n {
			return fmt.Errorf("%w: %d scales, want %d", ErrIncompatibleArtifact, len(a.Scales), n)
		}
		for i, s := range a.Scales {
			if s == 0 {
				return fmt.Errorf("%w: zero scale for %s", ErrIncompatibleArtifact, battery.FeatureNames[i])
			}
		}
	}
	all := append(append(append([]float64{a.Intercept}, a.Coefficients...), a.Means...), a.Scales...)
	if floats.HasNaN(all) {
		return fmt.Errorf("%w: NaN parameter", ErrCorruptArtifact)
	}
	return nil
}

// LinearModel evaluates y = ((x - means) / scales) . coefficients + intercept.
// It is immutable after construction.
type LinearModel struct {
	coef      *mat.VecDense
	intercept float64
	means     []float64
	scales    []float64
}

// NewLinearModel builds a model from a validated artifact.
func NewLinearModel(a LinearArtifact) (*LinearModel, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	coef := mat.NewVecDense(len(a.Coefficients), append([]float64(nil), a.Coefficients...))
	return &LinearModel{
		coef:      coef,
		intercept: a.Intercept,
		means:     append([]float64(nil), a.Means...),
		scales:    append([]float64(nil), a.Scales...),
	}, nil
}

// LoadLinear reads and validates a JSON artifact from path.
func LoadLinear(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a LinearArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return NewLinearModel(a)
}

// Predict returns one prediction per row as a *mat.VecDense.
func (m *LinearModel) Predict(_ context.Context, rows [][]float64) (any, error) {
	n := m.coef.Len()
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrShape)
	}
	x := mat.NewDense(len(rows), n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), n)
		}
		for j, v := range row {
			if len(m.means) > 0 {
				v -= m.means[j]
			}
			if len(m.scales) > 0 {
				v /= m.scales[j]
			}
			x.Set(i, j, v)
		}
	}
	y := mat.NewVecDense(len(rows), nil)
	y.MulVec(x, m.coef)
	for i := 0; i < y.Len(); i++ {
		y.SetVec(i, y.AtVec(i)+m.intercept)
	}
	return y, nil
}
