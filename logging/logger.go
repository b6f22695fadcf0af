package logging

import "context"

// Logger is a leveled, named logger. Each method takes a message followed by alternating keys and
// values.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// CDebugw logs at debug level when the logger is at debug level or ctx has debug mode
	// enabled.
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})

	SetLevel(level Level)
	GetLevel() Level

	// Sublogger returns a logger named "<name>.<subname>" that writes to the same appenders. It
	// starts at the parent's current level and is leveled independently afterwards.
	Sublogger(subname string) Logger
}
