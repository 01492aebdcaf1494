// Package plugins links the built-in model kinds and metrics sinks into the
// binary and reports what is available.
package plugins

import (
	coremetrics "github.com/kilianp07/batteryhealth/core/metrics"
	"github.com/kilianp07/batteryhealth/core/prediction"
)

// Available returns the registered kinds per plugin family.
func Available() map[string][]string {
	return map[string][]string{
		"model":   prediction.ModelKinds(),
		"metrics": coremetrics.SinkKinds(),
	}
}
