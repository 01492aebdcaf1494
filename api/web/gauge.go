package web

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// GaugeHTML renders a standalone gauge page for a health percentage.
func GaugeHTML(health float64) (string, error) {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Battery Health",
			Width:     "100%",
			Height:    "300px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Battery Health"}),
	)
	gauge.AddSeries("health", []opts.GaugeData{{Name: "Health %", Value: math.Round(health*100) / 100}})

	var buf bytes.Buffer
	if err := gauge.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render gauge: %w", err)
	}
	return buf.String(), nil
}

// Gauge serves GET /gauge?health=<percent>.
func (h *Handler) Gauge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	health, err := strconv.ParseFloat(r.URL.Query().Get("health"), 64)
	if err != nil || math.IsNaN(health) || math.IsInf(health, 0) {
		http.Error(w, "invalid health value", http.StatusBadRequest)
		return
	}
	page, err := GaugeHTML(health)
	if err != nil {
		if h.log != nil {
			h.log.Errorf("gauge: %v", err)
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
