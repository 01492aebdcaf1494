// Package monitoring abstracts the error reporting backend.
package monitoring

import "time"

// Monitor reports errors to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}
