// Package metrics defines the sinks that observe predictions. Sinks are
// built from configuration through a factory registry; several configured
// sinks are combined into a MultiSink. Recording never changes the outcome
// of a prediction: sink errors are only logged by the caller.
package metrics
