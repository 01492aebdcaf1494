// Package models provides the built-in Model kinds and registers them with
// the prediction loader:
//
//   - "linear": a linear regression artifact stored as JSON, optionally with
//     per-column standardisation, evaluated with gonum.
//   - "remote": an external scoring endpoint speaking
//     {"instances": [[...]]} -> {"predictions": [...]}.
//
// Import the package for its side effects to make the kinds available.
package models
