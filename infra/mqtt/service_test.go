package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// mockClient implements pahoClient for tests.
type mockClient struct {
	opts *paho.ClientOptions

	mu          sync.Mutex
	handler     paho.MessageHandler
	subscribed  []string
	published   map[string][][]byte
	publishErrs []error
	unsubbed    []string
	connected   bool
	// release, when set, holds every Publish until it is closed.
	release chan struct{}
}

func (m *mockClient) IsConnected() bool { return m.connected }
func (m *mockClient) Connect() paho.Token {
	m.connected = true
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.connected = false }
func (m *mockClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	if m.published == nil {
		m.published = map[string][][]byte{}
	}
	m.published[topic] = append(m.published[topic], payload.([]byte))
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, topic)
	m.handler = cb
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(topics ...string) paho.Token {
	m.unsubbed = append(m.unsubbed, topics...)
	return &dummyToken{}
}
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return m.connected }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

func newTestService(t *testing.T, model prediction.Model, mc *mockClient) *Service {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
	pred, err := prediction.NewPredictor(model)
	require.NoError(t, err)
	svc, err := NewService(Config{Enabled: true, Broker: "tcp://localhost:1883", BackoffMS: 1}, pred, battery.NewBounds(battery.MileageLimitStandard), nil)
	require.NoError(t, err)
	return svc
}

func requestPayload(t *testing.T, fv battery.FeatureVector, corr string) []byte {
	t.Helper()
	b, err := json.Marshal(Request{Input: battery.InputFrom(fv), CorrelationID: corr})
	require.NoError(t, err)
	return b
}

func TestService_SubscribesOnConnect(t *testing.T) {
	mc := &mockClient{}
	newTestService(t, &prediction.MockModel{Output: 80.0}, mc)
	assert.Equal(t, []string{DefaultRequestTopic}, mc.subscribed)
	require.NotNil(t, mc.handler)
}

func TestService_PredictRoundTrip(t *testing.T) {
	mc := &mockClient{}
	svc := newTestService(t, &prediction.MockModel{Output: []float64{64.5}}, mc)

	fv := battery.NewBounds(battery.MileageLimitStandard).Defaults()
	mc.handler(mc, mockMessage{topic: "battery/ev-42/predict", p: requestPayload(t, fv, "c-1")})
	svc.Close()

	msgs := mc.published["battery/ev-42/health"]
	require.Len(t, msgs, 1)
	var resp Response
	require.NoError(t, json.Unmarshal(msgs[0], &resp))
	require.NotNil(t, resp.Health)
	assert.Equal(t, 64.5, *resp.Health)
	assert.Equal(t, "fair", resp.Band)
	assert.Equal(t, "ev-42", resp.VehicleID)
	assert.Equal(t, "c-1", resp.CorrelationID)
	assert.NotEmpty(t, resp.RequestID)
	assert.Empty(t, resp.Error)
}

func TestService_Errors(t *testing.T) {
	mc := &mockClient{}
	svc := newTestService(t, &prediction.MockModel{Err: errors.New("model offline")}, mc)

	resp := svc.Handle("ev-1", []byte("{oops"))
	assert.Contains(t, resp.Error, "decode request")

	resp = svc.Handle("ev-1", requestPayload(t, battery.FeatureVector{Age: 99, BatteryCapacity: 75}, "c-2"))
	assert.Contains(t, resp.Error, "age")
	assert.Equal(t, "c-2", resp.CorrelationID)

	resp = svc.Handle("ev-1", requestPayload(t, battery.FeatureVector{AvgTemp: 25, BatteryCapacity: 75}, ""))
	assert.Contains(t, resp.Error, "model offline")
	assert.NotEmpty(t, resp.RequestID)
	assert.Nil(t, resp.Health)
}

func TestService_PartialPayloadRejected(t *testing.T) {
	m := &prediction.MockModel{Output: 80.0}
	svc := newTestService(t, m, &mockClient{})

	resp := svc.Handle("ev-1", []byte(`{"battery_capacity":75,"correlation_id":"c-3"}`))
	assert.Contains(t, resp.Error, "missing field age")
	assert.Equal(t, "c-3", resp.CorrelationID)
	assert.Equal(t, "ev-1", resp.VehicleID)
	assert.Nil(t, resp.Health)

	resp = svc.Handle("ev-1", []byte(`{"age":3,"mileage":50000,"charging_cycles":800,"fast_charging_pct":30,"battery_capacity":75}`))
	assert.Contains(t, resp.Error, "missing field avg_temp")

	assert.Empty(t, m.Calls())
}

func TestService_HandlerDoesNotBlockOnPublish(t *testing.T) {
	mc := &mockClient{release: make(chan struct{})}
	svc := newTestService(t, &prediction.MockModel{Output: 72.0}, mc)

	payload := requestPayload(t, battery.NewBounds(battery.MileageLimitStandard).Defaults(), "")
	returned := make(chan struct{})
	go func() {
		mc.handler(mc, mockMessage{topic: "battery/ev-9/predict", p: payload})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("message handler blocked on publish")
	}
	mc.mu.Lock()
	assert.Empty(t, mc.published["battery/ev-9/health"])
	mc.mu.Unlock()

	close(mc.release)
	svc.Close()
	assert.Len(t, mc.published["battery/ev-9/health"], 1)
}

func TestNewClientOptions_UnorderedDelivery(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "x"})
	require.NoError(t, err)
	assert.False(t, opts.Order)
}

func TestService_PublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{errors.New("net fail"), errors.New("net fail")}}
	svc := newTestService(t, &prediction.MockModel{Output: 90.0}, mc)
	require.NoError(t, svc.publish("ev-7", Response{}))
	assert.Len(t, mc.published["battery/ev-7/health"], 1)

	mc.publishErrs = []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}
	assert.Error(t, svc.publish("ev-7", Response{}))
}

func TestService_Close(t *testing.T) {
	mc := &mockClient{}
	svc := newTestService(t, &prediction.MockModel{Output: 90.0}, mc)
	svc.Close()
	assert.Equal(t, []string{DefaultRequestTopic}, mc.unsubbed)
	assert.False(t, mc.connected)
}

func TestVehicleFromTopic(t *testing.T) {
	assert.Equal(t, "ev-1", VehicleFromTopic("battery/+/predict", "battery/ev-1/predict"))
	assert.Equal(t, "", VehicleFromTopic("battery/+/predict", "battery/predict"))
	assert.Equal(t, "", VehicleFromTopic("battery/predict", "battery/predict"))
	assert.Equal(t, "f1", VehicleFromTopic("fleet/+/battery/predict", "fleet/f1/battery/predict"))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://x:1883", QoS: 3}.Validate())

	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultRequestTopic, c.RequestTopic)
	assert.Equal(t, 3, c.MaxRetries)
}

func TestLoadTLSConfig_Missing(t *testing.T) {
	_, err := Config{UseTLS: true}.LoadTLSConfig()
	assert.Error(t, err)
	_, err = NewClientOptions(Config{Broker: "ssl://x:8883", UseTLS: true})
	assert.Error(t, err)
}

var _ Predictor = (*prediction.Predictor)(nil)
