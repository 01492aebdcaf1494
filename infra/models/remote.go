package models

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kilianp07/batteryhealth/auth"
)

// DefaultRemoteTimeout bounds a scoring call when no timeout is configured.
const DefaultRemoteTimeout = 5 * time.Second

// ErrRemoteStatus is returned for non-2xx responses from the scoring endpoint.
var ErrRemoteStatus = errors.New("unexpected scoring status")

// RemoteConfig configures the remote model kind.
type RemoteConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// ProbePath is requested once at load time; a non-2xx answer fails the load.
	ProbePath string `json:"probe_path"`
	// Auth enables OAuth2 client credentials on every call.
	Auth *auth.Conf `json:"auth"`
}

// Timeout returns the configured timeout or DefaultRemoteTimeout.
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultRemoteTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RemoteModel forwards predictions to an external scoring service.
type RemoteModel struct {
	endpoint string
	client   *http.Client
}

// NewRemoteModel validates cfg and, when ProbePath is set, checks that the
// service answers before returning.
func NewRemoteModel(ctx context.Context, cfg RemoteConfig, client *http.Client) (*RemoteModel, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", cfg.URL)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
		if cfg.Auth.Enabled() {
			client.Transport = auth.NewClientCred(*cfg.Auth).Transport(nil)
		}
	}
	m := &RemoteModel{endpoint: u.String(), client: client}
	if cfg.ProbePath != "" {
		target := *u
		target.Path = "/" + strings.TrimPrefix(cfg.ProbePath, "/")
		target.RawQuery = ""
		if err := m.ping(ctx, target.String()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RemoteModel) ping(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", target, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping %s: %w %d", target, ErrRemoteStatus, resp.StatusCode)
	}
	return nil
}

type scoringRequest struct {
	Instances [][]float64 `json:"instances"`
}

type scoringResponse struct {
	Predictions json.RawMessage `json:"predictions"`
}

// Predict posts rows to the endpoint. The returned value is a float64,
// []float64 or [][]float64 depending on what the service sent.
func (m *RemoteModel) Predict(ctx context.Context, rows [][]float64) (any, error) {
	body, err := json.Marshal(scoringRequest{Instances: rows})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrRemoteStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out scoringResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}
	return decodePredictions(out.Predictions)
}

func decodePredictions(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err == nil {
		return vec, nil
	}
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err == nil {
		return rows, nil
	}
	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}
	return nil, fmt.Errorf("decode predictions: unexpected payload %.64s", string(raw))
}
