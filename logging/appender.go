package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// timeFormat is the timestamp layout of console lines.
const timeFormat = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. It is the write half of `zapcore.Core`, so a core such as
// a zaptest observer can be used as an appender.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes one tab separated line per entry: time, level, logger name, caller,
// message and, when present, the fields as a JSON object.
type ConsoleAppender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterAppender returns a ConsoleAppender writing to w.
func NewWriterAppender(w io.Writer) *ConsoleAppender {
	return &ConsoleAppender{w: w}
}

// Write formats entry and writes it. A field encoding failure still writes the line without
// fields.
func (a *ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatLine(entry, fields)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, writeErr := fmt.Fprintln(a.w, line); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync is a no-op.
func (a *ConsoleAppender) Sync() error {
	return nil
}

func formatLine(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	parts := []string{
		entry.Time.Format(timeFormat),
		strings.ToUpper(entry.Level.String()),
		entry.LoggerName,
	}
	if entry.Caller.Defined {
		parts = append(parts, entry.Caller.TrimmedPath())
	}
	parts = append(parts, entry.Message)
	if len(fields) == 0 {
		return strings.Join(parts, "\t"), nil
	}

	// zap's json encoder keeps fields in order. An empty entry leaves only the fields.
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(parts, "\t"), err
	}
	defer buf.Free()
	return strings.Join(append(parts, buf.String()), "\t"), nil
}
