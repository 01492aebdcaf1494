package plugins

import (
	// Built-in model kinds: linear, remote.
	_ "github.com/kilianp07/batteryhealth/infra/models"
	// Built-in metrics sinks: nop, prometheus.
	_ "github.com/kilianp07/batteryhealth/infra/metrics"
)
