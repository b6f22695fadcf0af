package logging

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugKeyField is attached to lines logged because the context enabled debug mode.
const debugKeyField = "debug_log_key"

type impl struct {
	name      string
	level     AtomicLevel
	utc       bool
	appenders []Appender
}

func newImpl(name string, level Level, utc bool, appenders ...Appender) *impl {
	return &impl{name: name, level: NewAtomicLevelAt(level), utc: utc, appenders: appenders}
}

func (l *impl) SetLevel(level Level) {
	l.level.Set(level)
}

func (l *impl) GetLevel() Level {
	return l.level.Get()
}

func (l *impl) Sublogger(subname string) Logger {
	name := subname
	if l.name != "" {
		name = l.name + "." + subname
	}
	return newImpl(name, l.level.Get(), l.utc, l.appenders...)
}

func (l *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if l.enabled(DEBUG) {
		l.write(DEBUG, msg, keysAndValues)
	}
}

func (l *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	switch key, ok := debugKey(ctx); {
	case l.enabled(DEBUG):
		l.write(DEBUG, msg, keysAndValues)
	case ok:
		l.write(DEBUG, msg, append(keysAndValues[:len(keysAndValues):len(keysAndValues)], debugKeyField, key))
	}
}

func (l *impl) Infow(msg string, keysAndValues ...interface{}) {
	if l.enabled(INFO) {
		l.write(INFO, msg, keysAndValues)
	}
}

func (l *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if l.enabled(WARN) {
		l.write(WARN, msg, keysAndValues)
	}
}

func (l *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if l.enabled(ERROR) {
		l.write(ERROR, msg, keysAndValues)
	}
}

func (l *impl) enabled(level Level) bool {
	return level >= l.level.Get()
}

// write must be called directly from a logging method so the caller lookup lands on user code.
func (l *impl) write(level Level, msg string, keysAndValues []interface{}) {
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       time.Now(),
		LoggerName: l.name,
		Message:    msg,
		Caller:     zapcore.NewEntryCaller(runtime.Caller(2)),
	}
	if l.utc {
		entry.Time = entry.Time.UTC()
	}
	fields := toFields(keysAndValues)

	var err error
	for _, appender := range l.appenders {
		err = multierr.Append(err, appender.Write(entry, fields))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:errcheck
	}
}

// toFields pairs up keys and values. Keys are formatted with %v. A trailing key without a value
// gets an error value so the line is not silently dropped.
func toFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.String(key, "unpaired log key"))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
