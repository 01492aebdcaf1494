package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/batteryhealth/core/battery"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

func validForm() url.Values {
	return url.Values{
		battery.FieldAge:             {"3"},
		battery.FieldMileage:         {"50000"},
		battery.FieldChargingCycles:  {"800"},
		battery.FieldAvgTemp:         {"25"},
		battery.FieldFastChargingPct: {"30"},
		battery.FieldCapacity:        {"75"},
	}
}

func newTestHandler(t *testing.T, m prediction.Model) *Handler {
	t.Helper()
	p, err := prediction.NewPredictor(m)
	require.NoError(t, err)
	return NewHandler(p, battery.NewBounds(battery.MileageLimitStandard), "EV Battery Health Predictor", nil)
}

func submit(h *Handler, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Predict(rr, req)
	return rr
}

func TestIndex_RendersDefaults(t *testing.T) {
	h := newTestHandler(t, &prediction.MockModel{Output: 80.0})
	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "EV Battery Health Predictor")
	assert.Contains(t, body, "Fill in the inputs on the left and click Predict.")
	assert.Contains(t, body, `name="mileage"`)
	assert.Contains(t, body, `max="500000"`)
	assert.Contains(t, body, `value="50000"`)
}

func TestIndex_UnknownPath(t *testing.T) {
	h := newTestHandler(t, &prediction.MockModel{Output: 80.0})
	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPredict_RendersResult(t *testing.T) {
	m := &prediction.MockModel{Output: 72.3}
	h := newTestHandler(t, m)
	rr := submit(h, validForm())

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "72.30%")
	assert.Contains(t, body, "band-excellent")
	assert.Contains(t, body, "Estimated range: 271 km")
	assert.Contains(t, body, "/gauge?health=72.30")
	require.Len(t, m.Calls(), 1)
	assert.Equal(t, []float64{3, 50000, 800, 25, 30, 75}, m.Calls()[0][0])
}

func TestPredict_CriticalBand(t *testing.T) {
	h := newTestHandler(t, &prediction.MockModel{Output: 39.9})
	body := submit(h, validForm()).Body.String()
	assert.Contains(t, body, "band-critical")
	assert.Contains(t, body, "39.90%")
}

func TestPredict_InvalidInputSkipsModel(t *testing.T) {
	m := &prediction.MockModel{Output: 50.0}
	h := newTestHandler(t, m)

	form := validForm()
	form.Set(battery.FieldMileage, "900000")
	rr := submit(h, form)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "mileage")
	assert.Contains(t, rr.Body.String(), `value="900000"`)

	form = validForm()
	form.Set(battery.FieldAge, "abc")
	assert.Equal(t, http.StatusBadRequest, submit(h, form).Code)

	assert.Empty(t, m.Calls())
}

func TestPredict_ModelFailure(t *testing.T) {
	h := newTestHandler(t, &prediction.MockModel{Err: errors.New("boom")})
	rr := submit(h, validForm())
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Prediction failed")
}

func TestPredict_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, &prediction.MockModel{Output: 50.0})
	rr := httptest.NewRecorder()
	h.Predict(rr, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestParseForm(t *testing.T) {
	bounds := battery.NewBounds(battery.MileageLimitStandard)

	fv, err := ParseForm(validForm(), bounds)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 50000, 800, 25, 30, 75}, fv.Values())

	form := validForm()
	form.Del(battery.FieldAvgTemp)
	_, err = ParseForm(form, bounds)
	assert.Error(t, err)

	form = validForm()
	form.Set(battery.FieldFastChargingPct, "30.5")
	_, err = ParseForm(form, bounds)
	assert.Error(t, err)

	form = validForm()
	form.Set(battery.FieldCapacity, "5")
	_, err = ParseForm(form, bounds)
	assert.ErrorIs(t, err, battery.ErrOutOfRange)
}
