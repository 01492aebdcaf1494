package metrics

import "time"

// Prediction outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// PredictionEvent describes one call to the predictor.
type PredictionEvent struct {
	RequestID string
	// Source names the input surface (web, api, mqtt, cli).
	Source   string
	Outcome  string
	Health   float64
	Band     string
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records prediction events.
type MetricsSink interface {
	RecordPrediction(ev PredictionEvent) error
}

// ModelLoadEvent describes the one-time model load at startup.
type ModelLoadEvent struct {
	Kind     string
	Duration time.Duration
	Err      error
	Time     time.Time
}

// ModelLoadRecorder is implemented by sinks able to record model loads.
type ModelLoadRecorder interface {
	RecordModelLoad(ev ModelLoadEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordModelLoad(ModelLoadEvent) error   { return nil }
