package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger writes structured key/value logs to the console.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a new Logger at info level with text output.
func NewLogger() *Logger {
	return New(os.Stdout, "info", "text")
}

// New creates a Logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.SetLevel(lvl)
	}
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a Logger that adds the given key/value pairs to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(args))}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Debug(msg)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Info(msg)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Warn(msg)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.entry.WithFields(fields(args)).Error(msg)
}

// fields turns alternating key/value arguments into logrus fields. A trailing
// key without a value is kept under "!BADKEY".
func fields(args []any) logrus.Fields {
	if len(args) == 0 {
		return nil
	}
	f := make(logrus.Fields, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
