package prediction

import (
	"context"
	"sync"
)

// MockModel is a deterministic Model for tests and local runs. It returns
// Output, fails with Err, or panics with Panic, and records every batch.
type MockModel struct {
	Output any
	Err    error
	Panic  any

	mu    sync.Mutex
	calls [][][]float64
}

// Predict implements Model.
func (m *MockModel) Predict(_ context.Context, rows [][]float64) (any, error) {
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	m.mu.Lock()
	m.calls = append(m.calls, cp)
	m.mu.Unlock()
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Output, nil
}

// Calls returns a copy of the batches received so far.
func (m *MockModel) Calls() [][][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][][]float64, len(m.calls))
	copy(out, m.calls)
	return out
}
