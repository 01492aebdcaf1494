// Package battery describes the vehicle usage profile fed to the health model
// and the presentation rules applied to its output. The column order of
// FeatureVector is fixed: the model was fitted against it and a reordered
// vector still produces a number, just the wrong one.
package battery
