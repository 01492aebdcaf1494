package metrics

import "github.com/kilianp07/batteryhealth/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a sink constructor identified by kind.
func RegisterMetricsSink(kind string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(kind, f)
}

// NewMetricsSink builds the configured sinks. No configuration yields a
// NopSink, several configurations a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// SinkKinds lists the registered sink kinds.
func SinkKinds() []string { return sinkRegistry.Kinds() }
