package prediction

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/metrics"
)

type captureSink struct {
	mu     sync.Mutex
	events []metrics.PredictionEvent
	err    error
}

func (c *captureSink) RecordPrediction(ev metrics.PredictionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

type captureMonitor struct {
	errs []error
	tags []map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}

func (c *captureMonitor) Flush(time.Duration) {}

func defaultVector() battery.FeatureVector {
	return battery.NewBounds(battery.MileageLimitStandard).Defaults()
}

func TestNewPredictor_NilModel(t *testing.T) {
	_, err := NewPredictor(nil)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestPredictHealth_PassThrough(t *testing.T) {
	m := &MockModel{Output: []float64{87.25}}
	p, err := NewPredictor(m)
	require.NoError(t, err)

	res, err := p.PredictHealth(context.Background(), defaultVector())
	require.NoError(t, err)
	assert.Equal(t, 87.25, res.Health)
	assert.Equal(t, battery.BandExcellent, res.Band)
	assert.NotEmpty(t, res.RequestID)

	calls := m.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0], 1)
	assert.Equal(t, []float64{3, 50_000, 800, 25, 30, 75}, calls[0][0])
}

// A constant model must yield the same value whatever the inputs are.
func TestPredictHealth_ConstantModelIgnoresInputs(t *testing.T) {
	const v = 63.4
	p, err := NewPredictor(&MockModel{Output: v})
	require.NoError(t, err)
	b := battery.NewBounds(battery.MileageLimitStandard)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		fv := battery.FeatureVector{
			Age:             b[0].Min + r.Float64()*(b[0].Max-b[0].Min),
			Mileage:         b[1].Min + r.Float64()*(b[1].Max-b[1].Min),
			ChargingCycles:  b[2].Min + r.Float64()*(b[2].Max-b[2].Min),
			AvgTemp:         b[3].Min + r.Float64()*(b[3].Max-b[3].Min),
			FastChargingPct: r.Intn(101),
			BatteryCapacity: b[5].Min + r.Float64()*(b[5].Max-b[5].Min),
		}
		res, err := p.PredictHealth(context.Background(), fv)
		require.NoError(t, err)
		assert.Equal(t, v, res.Health)
	}
}

func TestPredictHealth_MinimumInput(t *testing.T) {
	m := &MockModel{Output: 12.0}
	p, err := NewPredictor(m)
	require.NoError(t, err)
	fv := battery.FeatureVector{AvgTemp: 25, BatteryCapacity: 10}
	res, err := p.PredictHealth(context.Background(), fv)
	require.NoError(t, err)
	assert.Equal(t, 12.0, res.Health)
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, []float64{0, 0, 0, 25, 0, 10}, m.Calls()[0][0])
}

func TestPredictHealth_ModelError(t *testing.T) {
	boom := errors.New("shape mismatch")
	sink := &captureSink{}
	mon := &captureMonitor{}
	p, err := NewPredictor(&MockModel{Err: boom}, WithMetrics(sink), WithMonitor(mon))
	require.NoError(t, err)

	ctx := WithSource(context.Background(), "api")
	_, err = p.PredictHealth(ctx, defaultVector())
	require.Error(t, err)
	var pe *PredictionError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, pe.RequestID)
	assert.True(t, IsPredictionError(err))

	require.Len(t, sink.events, 1)
	assert.Equal(t, metrics.OutcomeFailure, sink.events[0].Outcome)
	assert.Equal(t, "api", sink.events[0].Source)
	require.Len(t, mon.errs, 1)
	assert.Equal(t, pe.RequestID, mon.tags[0]["request_id"])
}

func TestPredictHealth_ModelPanic(t *testing.T) {
	p, err := NewPredictor(&MockModel{Panic: "index out of range"})
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = p.PredictHealth(context.Background(), defaultVector())
	})
	assert.ErrorIs(t, err, ErrModelPanic)
	assert.True(t, IsPredictionError(err))
}

func TestPredictHealth_BadOutputs(t *testing.T) {
	for _, out := range []any{nil, []float64{}, "x"} {
		p, err := NewPredictor(&MockModel{Output: out})
		require.NoError(t, err)
		_, err = p.PredictHealth(context.Background(), defaultVector())
		assert.True(t, IsPredictionError(err), "%v", out)
	}
}

// A failed request does not affect the next one.
func TestPredictHealth_FailureIsIsolated(t *testing.T) {
	calls := 0
	m := ModelFunc(func(context.Context, [][]float64) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return 55.0, nil
	})
	p, err := NewPredictor(m)
	require.NoError(t, err)
	_, err = p.PredictHealth(context.Background(), defaultVector())
	require.Error(t, err)
	res, err := p.PredictHealth(context.Background(), defaultVector())
	require.NoError(t, err)
	assert.Equal(t, battery.BandFair, res.Band)
}

func TestPredictHealth_BandsAndMetrics(t *testing.T) {
	sink := &captureSink{err: errors.New("sink down")}
	bands := battery.DefaultBandConfig()
	bands.FairIncludesUpper = true
	p, err := NewPredictor(&MockModel{Output: 70.0}, WithMetrics(sink), WithBands(bands))
	require.NoError(t, err)

	res, err := p.PredictHealth(context.Background(), defaultVector())
	require.NoError(t, err, "sink errors must not fail the prediction")
	assert.Equal(t, battery.BandFair, res.Band)
	assert.InDelta(t, 262.5, res.EstimatedRangeKM(), 1e-9)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "fair", sink.events[0].Band)
	assert.Equal(t, "unknown", sink.events[0].Source)
	assert.Equal(t, bands, p.Bands())
}

func TestPredictHealth_Concurrent(t *testing.T) {
	p, err := NewPredictor(&MockModel{Output: 90.0})
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.PredictHealth(context.Background(), defaultVector())
			assert.NoError(t, err)
			assert.Equal(t, 90.0, res.Health)
		}()
	}
	wg.Wait()
}
