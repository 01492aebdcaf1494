package metrics

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards ev to all sinks and returns the first error.
// Every sink is called even when an earlier one fails.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordModelLoad forwards ev to the sinks that support it.
func (m *MultiSink) RecordModelLoad(ev ModelLoadEvent) error {
	var first error
	for _, s := range m.Sinks {
		rec, ok := s.(ModelLoadRecorder)
		if !ok {
			continue
		}
		if err := rec.RecordModelLoad(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
