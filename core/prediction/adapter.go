package prediction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Scalar normalizes a model output to a single finite float. Collections
// yield their first element.
func Scalar(out any) (float64, error) {
	v, err := first(out)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return v, nil
}

func first(out any) (float64, error) {
	switch v := out.(type) {
	case nil:
		return 0, ErrEmptyOutput
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []float64:
		if len(v) == 0 {
			return 0, ErrEmptyOutput
		}
		return v[0], nil
	case []float32:
		if len(v) == 0 {
			return 0, ErrEmptyOutput
		}
		return float64(v[0]), nil
	case [][]float64:
		if len(v) == 0 || len(v[0]) == 0 {
			return 0, ErrEmptyOutput
		}
		return v[0][0], nil
	case mat.Vector:
		if v.Len() == 0 {
			return 0, ErrEmptyOutput
		}
		return v.AtVec(0), nil
	case mat.Matrix:
		r, c := v.Dims()
		if r == 0 || c == 0 {
			return 0, ErrEmptyOutput
		}
		return v.At(0, 0), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedOutput, out)
	}
}
