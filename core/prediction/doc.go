// Package prediction turns a battery feature vector into a health percentage.
//
// The Model is an opaque, read-only collaborator loaded once at startup by
// Load and injected into a Predictor. Predictor.PredictHealth is the single
// request path: it builds the one-row batch in model column order, invokes
// the model, normalizes whatever shape the model returns to one float and
// converts every failure, panics included, into a *PredictionError.
// Predictions are not clamped: a model returning 104% or -2% is reported as is.
package prediction
