package logger

import corelogger "github.com/kilianp07/batteryhealth/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)                {}
func (NopLogger) Debugw(string, map[string]any)        {}
func (NopLogger) Infof(string, ...any)                 {}
func (NopLogger) Infow(string, map[string]any)         {}
func (NopLogger) Warnf(string, ...any)                 {}
func (NopLogger) Errorf(string, ...any)                {}
func (NopLogger) Errorw(error, string, map[string]any) {}

// New returns a Logger for the given component. Output format and level are
// taken from APP_ENV and LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}
