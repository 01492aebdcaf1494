package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/kilianp07/batteryhealth/core/metrics"
)

// PromSink records predictions in Prometheus metrics.
type PromSink struct {
	predictions *prometheus.CounterVec
	health      prometheus.Histogram
	bands       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	modelLoad   *prometheus.GaugeVec
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global one. Collectors already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_predictions_total",
		Help: "Total number of battery health predictions",
	}, []string{"source", "outcome"})
	health := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "battery_health_percent",
		Help:    "Distribution of predicted battery health",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
	bands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "battery_health_band_total",
		Help: "Predictions per health band",
	}, []string{"band"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "battery_prediction_duration_seconds",
		Help:    "Time spent in the model per prediction",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	modelLoad := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "battery_model_load_seconds",
		Help: "Duration of the startup model load",
	}, []string{"kind"})

	var err error
	if predictions, err = register(reg, predictions); err != nil {
		return nil, err
	}
	if health, err = register(reg, health); err != nil {
		return nil, err
	}
	if bands, err = register(reg, bands); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if modelLoad, err = register(reg, modelLoad); err != nil {
		return nil, err
	}
	return &PromSink{predictions: predictions, health: health, bands: bands, duration: duration, modelLoad: modelLoad}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPrediction updates the counters and histograms for one prediction.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	s.predictions.WithLabelValues(ev.Source, ev.Outcome).Inc()
	s.duration.WithLabelValues(ev.Outcome).Observe(ev.Duration.Seconds())
	if ev.Outcome == coremetrics.OutcomeSuccess {
		s.health.Observe(ev.Health)
		s.bands.WithLabelValues(ev.Band).Inc()
	}
	return nil
}

// RecordModelLoad sets the load duration gauge for successful loads.
func (s *PromSink) RecordModelLoad(ev coremetrics.ModelLoadEvent) error {
	if ev.Err != nil {
		return nil
	}
	s.modelLoad.WithLabelValues(ev.Kind).Set(ev.Duration.Seconds())
	return nil
}

// StartPromServer serves /metrics on addr until ctx is cancelled. It uses a
// dedicated ServeMux so it never shares handlers with the application server.
// Listen and shutdown failures are returned to the caller.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return fmt.Errorf("prom server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("prom server shutdown: %w", err)
	}
	return nil
}
