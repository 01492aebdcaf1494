// Package api wires the HTTP surfaces of the service onto a single mux.
package api

import (
	"context"
	"net/http"

	"github.com/kilianp07/batteryhealth/api/predict"
	"github.com/kilianp07/batteryhealth/api/web"
	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/logger"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// Predictor is implemented by *prediction.Predictor.
type Predictor interface {
	PredictHealth(ctx context.Context, fv battery.FeatureVector) (prediction.Result, error)
}

// NewRouter registers the form, gauge and JSON routes and wraps them with
// recovery and request logging.
func NewRouter(pred Predictor, bounds battery.Bounds, title string, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	form := web.NewHandler(pred, bounds, title, log)
	mux.HandleFunc("/", form.Index)
	mux.HandleFunc("/predict", form.Predict)
	mux.HandleFunc("/gauge", form.Gauge)

	mux.Handle("/api/predict", predict.NewPredictHandler(pred, bounds))
	mux.Handle("/api/fields", predict.NewFieldsHandler(bounds))
	mux.Handle("/healthz", predict.NewHealthzHandler(pred))

	return Chain(mux, Recovery(log), Logging(log))
}
