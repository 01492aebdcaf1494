package logger

// Logger is the logging facade used across the service. Implementations
// attach a component name to every entry.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	// Infow logs a message with structured fields.
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Errorw logs err with structured fields.
	Errorw(err error, msg string, fields map[string]any)
}
