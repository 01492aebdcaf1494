package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/batteryhealth/core/monitoring"
)

func TestNewSentryMonitor_Disabled(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
	m.CaptureException(errors.New("ignored"), nil)
	m.Flush(time.Millisecond)
}

func TestNewSentryMonitor_InvalidDSN(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "::invalid"})
	assert.Error(t, err)
}
