package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/logger"
	"github.com/kilianp07/batteryhealth/core/metrics"
	"github.com/kilianp07/batteryhealth/core/monitoring"
)

// Result is a successful prediction.
type Result struct {
	RequestID string
	Health    float64
	Band      battery.Band
	Features  battery.FeatureVector
	Duration  time.Duration
}

// EstimatedRangeKM is the display-only range derived from the prediction.
func (r Result) EstimatedRangeKM() float64 {
	return battery.EstimatedRangeKM(r.Features.BatteryCapacity, r.Health)
}

type sourceKey struct{}

// WithSource tags ctx with the name of the input surface issuing the request.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the input surface recorded by WithSource.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok {
		return s
	}
	return "unknown"
}

// Predictor is the request-facing facade around a loaded Model. It holds no
// per-request state and is safe for concurrent use when the model is.
type Predictor struct {
	model   Model
	bands   battery.BandConfig
	log     logger.Logger
	sink    metrics.MetricsSink
	monitor monitoring.Monitor
	now     func() time.Time
	newID   func() string
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(p *Predictor) { p.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(s metrics.MetricsSink) Option { return func(p *Predictor) { p.sink = s } }

// WithMonitor sets the error monitor.
func WithMonitor(m monitoring.Monitor) Option { return func(p *Predictor) { p.monitor = m } }

// WithBands sets the band thresholds.
func WithBands(c battery.BandConfig) Option { return func(p *Predictor) { p.bands = c } }

// NewPredictor wraps m. A nil model is rejected so a Predictor can never
// exist without one.
func NewPredictor(m Model, opts ...Option) (*Predictor, error) {
	if m == nil {
		return nil, ErrNoModel
	}
	p := &Predictor{
		model:   m,
		bands:   battery.DefaultBandConfig(),
		log:     nopLogger{},
		sink:    metrics.NopSink{},
		monitor: monitoring.NopMonitor{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Bands returns the thresholds used to classify results.
func (p *Predictor) Bands() battery.BandConfig { return p.bands }

// PredictHealth runs the model on fv. Bounds are not checked here; that is
// the job of the input surfaces. Any failure is returned as *PredictionError.
func (p *Predictor) PredictHealth(ctx context.Context, fv battery.FeatureVector) (Result, error) {
	id := p.newID()
	start := p.now()
	health, err := p.invoke(ctx, [][]float64{fv.Values()})
	elapsed := p.now().Sub(start)
	source := SourceFrom(ctx)

	if err != nil {
		perr := &PredictionError{RequestID: id, Err: err}
		p.log.Errorw(err, "prediction failed", map[string]any{"request_id": id, "source": source})
		p.monitor.CaptureException(perr, map[string]string{"request_id": id, "source": source})
		p.record(metrics.PredictionEvent{
			RequestID: id, Source: source, Outcome: metrics.OutcomeFailure,
			Duration: elapsed, Time: start,
		})
		return Result{}, perr
	}

	band := p.bands.Classify(health)
	p.log.Debugw("prediction", map[string]any{
		"request_id": id,
		"source":     source,
		"health":     health,
		"band":       band.String(),
		"features":   fv.Fields(),
	})
	p.record(metrics.PredictionEvent{
		RequestID: id, Source: source, Outcome: metrics.OutcomeSuccess,
		Health: health, Band: band.String(), Duration: elapsed, Time: start,
	})
	return Result{RequestID: id, Health: health, Band: band, Features: fv, Duration: elapsed}, nil
}

func (p *Predictor) invoke(ctx context.Context, rows [][]float64) (health float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrModelPanic, r)
		}
	}()
	out, err := p.model.Predict(ctx, rows)
	if err != nil {
		return 0, err
	}
	return Scalar(out)
}

func (p *Predictor) record(ev metrics.PredictionEvent) {
	if err := p.sink.RecordPrediction(ev); err != nil {
		p.log.Warnf("record prediction %s: %v", ev.RequestID, err)
	}
}

// IsPredictionError reports whether err is a per-request prediction failure.
func IsPredictionError(err error) bool {
	var pe *PredictionError
	return errors.As(err, &pe)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)                {}
func (nopLogger) Debugw(string, map[string]any)        {}
func (nopLogger) Infof(string, ...any)                 {}
func (nopLogger) Infow(string, map[string]any)         {}
func (nopLogger) Warnf(string, ...any)                 {}
func (nopLogger) Errorf(string, ...any)                {}
func (nopLogger) Errorw(error, string, map[string]any) {}
