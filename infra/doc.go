// Package infra contains technical adapters such as model backends, the
// MQTT prediction service and metrics exporters. These packages depend
// only on the interfaces defined in the core packages.
package infra
