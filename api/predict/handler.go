// Package predict exposes the health predictor as a JSON API.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/prediction"
	"github.com/kilianp07/batteryhealth/core/report"
)

// Source is the input surface name used for metrics.
const Source = "api"

const maxBodyBytes = 1 << 16

// Predictor is the subset of prediction.Predictor used by the handlers.
type Predictor interface {
	PredictHealth(ctx context.Context, fv battery.FeatureVector) (prediction.Result, error)
}

// Request is the body of POST /api/predict. Every field is required.
type Request = battery.Input

// NewPredictHandler serves POST /api/predict. Invalid input answers 400,
// a failed prediction 422 with the request ID.
func NewPredictHandler(pred Predictor, bounds battery.Bounds) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, report.Report{Error: "method not allowed"})
			return
		}
		var req Request
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, report.Report{Error: fmt.Sprintf("decode request: %v", err)})
			return
		}
		fv, err := req.FeatureVector()
		if err == nil {
			err = bounds.Check(fv)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, report.FromError(err))
			return
		}
		res, err := pred.PredictHealth(prediction.WithSource(r.Context(), Source), fv)
		if err != nil {
			status := http.StatusInternalServerError
			if prediction.IsPredictionError(err) {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, report.FromError(err))
			return
		}
		writeJSON(w, http.StatusOK, report.FromResult(res))
	})
}

// NewFieldsHandler serves GET /api/fields with the input domain.
func NewFieldsHandler(bounds battery.Bounds) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, bounds)
	})
}

// NewHealthzHandler reports readiness. The predictor only exists once the
// model is loaded, so a non-nil predictor means ready.
func NewHealthzHandler(pred Predictor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if pred == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "model not loaded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode error cannot be reported to the client.
	_ = json.NewEncoder(w).Encode(v)
}
