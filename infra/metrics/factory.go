package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/batteryhealth/core/metrics"
)

// init registers the built-in sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		// The listener address lives in metrics.Config; the sink only owns collectors.
		s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
