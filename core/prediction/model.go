package prediction

import (
	"context"
	"errors"
	"fmt"
)

// Model is a pre-trained regressor. Predict receives a batch of rows, each in
// battery.FeatureNames order, and returns either a scalar or a collection
// whose first element is the prediction for the first row. Scalar documents
// the accepted shapes. Implementations must be safe for concurrent use.
type Model interface {
	Predict(ctx context.Context, rows [][]float64) (any, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, rows [][]float64) (any, error)

// Predict calls f.
func (f ModelFunc) Predict(ctx context.Context, rows [][]float64) (any, error) {
	return f(ctx, rows)
}

var (
	// ErrEmptyOutput is returned when the model yields no value.
	ErrEmptyOutput = errors.New("model returned no value")
	// ErrNonFinite is returned for NaN or infinite predictions.
	ErrNonFinite = errors.New("model returned a non-finite value")
	// ErrUnsupportedOutput is returned when the output shape is unknown.
	ErrUnsupportedOutput = errors.New("unsupported model output")
	// ErrModelPanic wraps a panic raised inside the model.
	ErrModelPanic = errors.New("model panicked")
	// ErrNoModel is returned when no model kind is configured.
	ErrNoModel = errors.New("no model configured")
)

// ModelLoadError reports that the model artifact could not be acquired. It is
// fatal: the service does not start without a model.
type ModelLoadError struct {
	Kind   string
	Source string
	Err    error
}

func (e *ModelLoadError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("load %s model from %s: %v", e.Kind, e.Source, e.Err)
	}
	return fmt.Sprintf("load %s model: %v", e.Kind, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// PredictionError reports a failed prediction for a single request. The
// process keeps serving after it.
type PredictionError struct {
	RequestID string
	Err       error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
