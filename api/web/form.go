// Package web serves the HTML input form and the result page.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/logger"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// Source is the input surface name used for metrics.
const Source = "web"

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Predictor is the subset of prediction.Predictor used by the form.
type Predictor interface {
	PredictHealth(ctx context.Context, fv battery.FeatureVector) (prediction.Result, error)
}

type fieldView struct {
	battery.FieldBounds
	Value string
}

type resultView struct {
	Display   string
	Label     string
	Message   string
	CSSClass  string
	RangeKM   string
	GaugeURL  string
	RequestID string
}

type page struct {
	Title  string
	Fields []fieldView
	Result *resultView
	Error  string
}

// Handler renders the form (GET /) and the prediction result (POST /predict).
type Handler struct {
	predictor Predictor
	bounds    battery.Bounds
	title     string
	log       logger.Logger
}

// NewHandler creates the form handler.
func NewHandler(pred Predictor, bounds battery.Bounds, title string, log logger.Logger) *Handler {
	return &Handler{predictor: pred, bounds: bounds, title: title, log: log}
}

// Index renders the empty form with default values.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.render(w, http.StatusOK, page{Fields: h.fields(h.bounds.Defaults())})
}

// Predict parses the submitted form, runs the prediction and renders the result.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, page{Fields: h.fields(h.bounds.Defaults()), Error: err.Error()})
		return
	}
	fv, err := ParseForm(r.PostForm, h.bounds)
	if err != nil {
		h.render(w, http.StatusBadRequest, page{Fields: h.echo(r.PostForm), Error: err.Error()})
		return
	}
	res, err := h.predictor.PredictHealth(prediction.WithSource(r.Context(), Source), fv)
	if err != nil {
		h.render(w, http.StatusUnprocessableEntity, page{Fields: h.fields(fv), Error: fmt.Sprintf("Prediction failed: %v", err)})
		return
	}
	h.render(w, http.StatusOK, page{Fields: h.fields(fv), Result: &resultView{
		Display:   battery.FormatPercent(res.Health),
		Label:     res.Band.Label(),
		Message:   res.Band.Message(),
		CSSClass:  res.Band.CSSClass(),
		RangeKM:   strconv.FormatFloat(res.EstimatedRangeKM(), 'f', 0, 64),
		GaugeURL:  "/gauge?health=" + url.QueryEscape(strconv.FormatFloat(res.Health, 'f', 2, 64)),
		RequestID: res.RequestID,
	}})
}

func (h *Handler) render(w http.ResponseWriter, status int, p page) {
	p.Title = h.title
	var buf strings.Builder
	if err := pageTmpl.ExecuteTemplate(&buf, "page", p); err != nil {
		if h.log != nil {
			h.log.Errorf("render page: %v", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, buf.String())
}

func (h *Handler) fields(fv battery.FeatureVector) []fieldView {
	vals := fv.Values()
	out := make([]fieldView, len(h.bounds))
	for i, b := range h.bounds {
		out[i] = fieldView{FieldBounds: b, Value: strconv.FormatFloat(vals[i], 'f', -1, 64)}
	}
	return out
}

// echo keeps what the user typed when the form is rejected.
func (h *Handler) echo(form url.Values) []fieldView {
	out := make([]fieldView, len(h.bounds))
	for i, b := range h.bounds {
		out[i] = fieldView{FieldBounds: b, Value: form.Get(b.Name)}
	}
	return out
}

// ParseForm reads the six fields from submitted values and checks them
// against bounds.
func ParseForm(form url.Values, bounds battery.Bounds) (battery.FeatureVector, error) {
	var vals [battery.FeatureCount]float64
	for i, b := range bounds {
		raw := strings.TrimSpace(form.Get(b.Name))
		if raw == "" {
			return battery.FeatureVector{}, fmt.Errorf("%s is required", b.Label)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return battery.FeatureVector{}, fmt.Errorf("%s must be a number", b.Label)
		}
		if b.Integer && v != float64(int(v)) {
			return battery.FeatureVector{}, fmt.Errorf("%s must be a whole number", b.Label)
		}
		vals[i] = v
	}
	fv := battery.FeatureVector{
		Age:             vals[0],
		Mileage:         vals[1],
		ChargingCycles:  vals[2],
		AvgTemp:         vals[3],
		FastChargingPct: int(vals[4]),
		BatteryCapacity: vals[5],
	}
	if err := bounds.Check(fv); err != nil {
		return battery.FeatureVector{}, err
	}
	return fv, nil
}
