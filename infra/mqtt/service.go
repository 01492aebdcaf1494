package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/prediction"
	"github.com/kilianp07/batteryhealth/core/report"
	"github.com/kilianp07/batteryhealth/infra/logger"
)

// Source is the input surface name used for metrics.
const Source = "mqtt"

// Predictor is the subset of prediction.Predictor used by the adapter.
type Predictor interface {
	PredictHealth(ctx context.Context, fv battery.FeatureVector) (prediction.Result, error)
}

// Request is the payload expected on the request topic.
type Request struct {
	battery.Input
	// CorrelationID is echoed back so callers can match responses.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Response is published on <prefix>/<vehicle>/health.
type Response struct {
	report.Report
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Service answers prediction requests received over MQTT.
type Service struct {
	cli       pahoClient
	cfg       Config
	predictor Predictor
	bounds    battery.Bounds
	log       logger.Logger
	timeout   time.Duration
	inflight  sync.WaitGroup
}

// NewService connects to the broker and subscribes to the request topic on
// every (re)connect.
func NewService(cfg Config, pred Predictor, bounds battery.Bounds, log logger.Logger) (*Service, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Service{cfg: cfg, predictor: pred, bounds: bounds, log: log, timeout: 10 * time.Second}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected, subscribing to %s", cfg.RequestTopic)
		if token := c.Subscribe(cfg.RequestTopic, cfg.QoS, s.onRequest); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	s.cli = c
	return s, nil
}

// onRequest must not block the paho router: prediction and publishing run
// in their own goroutine.
func (s *Service) onRequest(_ paho.Client, msg paho.Message) {
	vehicle := VehicleFromTopic(s.cfg.RequestTopic, msg.Topic())
	payload := msg.Payload()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		resp := s.Handle(vehicle, payload)
		if !resp.OK() {
			s.log.Warnf("request for %s answered with error: %s", vehicle, resp.Error)
		}
		if err := s.publish(vehicle, resp); err != nil {
			s.log.Errorf("publish response for %s: %v", vehicle, err)
		}
	}()
}

// Handle decodes one request payload and returns the response to publish.
func (s *Service) Handle(vehicle string, payload []byte) Response {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Report: report.Report{VehicleID: vehicle, Error: fmt.Sprintf("decode request: %v", err)}}
	}
	fv, err := req.FeatureVector()
	if err == nil {
		err = s.bounds.Check(fv)
	}
	if err != nil {
		r := report.FromError(err)
		r.VehicleID = vehicle
		return Response{Report: r, CorrelationID: req.CorrelationID}
	}
	ctx, cancel := context.WithTimeout(prediction.WithSource(context.Background(), Source), s.timeout)
	defer cancel()
	res, err := s.predictor.PredictHealth(ctx, fv)
	var r report.Report
	if err != nil {
		r = report.FromError(err)
	} else {
		r = report.FromResult(res)
	}
	r.VehicleID = vehicle
	return Response{Report: r, CorrelationID: req.CorrelationID}
}

// ResponseTopic returns the topic answers for vehicle are published on.
func (s *Service) ResponseTopic(vehicle string) string {
	if vehicle == "" {
		return s.cfg.ResponsePrefix + "/health"
	}
	return fmt.Sprintf("%s/%s/health", s.cfg.ResponsePrefix, vehicle)
}

func (s *Service) publish(vehicle string, resp Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	topic := s.ResponseTopic(vehicle)
	backoff := time.Duration(s.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		token := s.cli.Publish(topic, s.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			s.log.Debugf("published %s", topic)
			return nil
		}
		s.log.Warnf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < s.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// Close unsubscribes, waits for in-flight requests to be answered and
// disconnects from the broker.
func (s *Service) Close() {
	if s.cli == nil || !s.cli.IsConnected() {
		s.inflight.Wait()
		return
	}
	if token := s.cli.Unsubscribe(s.cfg.RequestTopic); token.Wait() && token.Error() != nil {
		s.log.Warnf("unsubscribe: %v", token.Error())
	}
	s.inflight.Wait()
	s.cli.Disconnect(250)
}

// VehicleFromTopic extracts the segment matched by the "+" wildcard of
// pattern. It returns "" when pattern has no wildcard or the topic does not
// line up with it.
func VehicleFromTopic(pattern, topic string) string {
	ps := strings.Split(pattern, "/")
	ts := strings.Split(topic, "/")
	if len(ps) != len(ts) {
		return ""
	}
	for i, p := range ps {
		if p == "+" {
			return ts[i]
		}
	}
	return ""
}
