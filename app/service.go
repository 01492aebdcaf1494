package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/batteryhealth/api"
	_ "github.com/kilianp07/batteryhealth/app/plugins"
	"github.com/kilianp07/batteryhealth/config"
	"github.com/kilianp07/batteryhealth/core/battery"
	coremetrics "github.com/kilianp07/batteryhealth/core/metrics"
	coremon "github.com/kilianp07/batteryhealth/core/monitoring"
	"github.com/kilianp07/batteryhealth/core/prediction"
	"github.com/kilianp07/batteryhealth/infra/logger"
	"github.com/kilianp07/batteryhealth/infra/metrics"
	"github.com/kilianp07/batteryhealth/infra/monitoring"
	"github.com/kilianp07/batteryhealth/infra/mqtt"
)

const flushTimeout = 2 * time.Second

// Service owns the loaded model and every surface that serves predictions.
type Service struct {
	Predictor *prediction.Predictor
	Bounds    battery.Bounds

	cfg     *config.Config
	log     logger.Logger
	monitor coremon.Monitor
	server  *http.Server
	mqtt    *mqtt.Service
}

// New loads the model once and builds the HTTP and MQTT surfaces around it.
// A model that cannot be loaded is returned as *prediction.ModelLoadError and
// no surface is started.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	start := time.Now()
	model, err := prediction.Load(cfg.Model)
	if rec, ok := sink.(coremetrics.ModelLoadRecorder); ok {
		_ = rec.RecordModelLoad(coremetrics.ModelLoadEvent{Kind: cfg.Model.Kind, Duration: time.Since(start), Err: err, Time: time.Now()})
	}
	if err != nil {
		logg.Errorw(err, "model load failed", map[string]any{"kind": cfg.Model.Kind})
		mon.CaptureException(err, map[string]string{"stage": "model_load"})
		mon.Flush(flushTimeout)
		return nil, err
	}
	logg.Infow("model loaded", map[string]any{"kind": cfg.Model.Kind, "duration_ms": time.Since(start).Milliseconds()})

	pred, err := prediction.NewPredictor(model,
		prediction.WithLogger(logger.New("predictor")),
		prediction.WithMetrics(sink),
		prediction.WithMonitor(mon),
		prediction.WithBands(cfg.Bands),
	)
	if err != nil {
		return nil, err
	}

	bounds := cfg.Form.Bounds()
	svc := &Service{
		Predictor: pred,
		Bounds:    bounds,
		cfg:       cfg,
		log:       logg,
		monitor:   mon,
	}
	svc.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(pred, bounds, cfg.Server.Title, logger.New("http")),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	if cfg.MQTT.Enabled {
		ms, err := mqtt.NewService(cfg.MQTT, pred, bounds, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt service: %w", err)
		}
		svc.mqtt = ms
	}
	return svc, nil
}

// Handler returns the HTTP handler serving the form and the JSON API.
func (s *Service) Handler() http.Handler { return s.server.Handler }

// Run serves HTTP (and /metrics when a prometheus sink is configured) until
// ctx is cancelled, then shuts the server down gracefully.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled() {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Close releases the MQTT connection and flushes pending error reports.
func (s *Service) Close() error {
	if s.mqtt != nil {
		s.mqtt.Close()
	}
	s.monitor.Flush(flushTimeout)
	return nil
}
