// Package logging provides the structured logging helpers shared by the
// ffpp packages.
//
// Every log line carries a "package" and "function" field so that output from
// the transport, codec, queue and communicator layers can be filtered without
// parsing messages:
//
//	log := logging.New("codec", "Encode").WithField("type", msg.Type)
//	log.Debug("Encoding message")
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxDumpBytes caps how much of a datagram is rendered by HexDump.
const maxDumpBytes = 64

// Logger wraps a set of logrus fields bound to one package and function.
// Derived loggers copy the field set, so a Logger may be shared between
// goroutines as long as it is only used to derive new ones.
type Logger struct {
	fields logrus.Fields
}

// New creates a logger with the standard package and function fields.
func New(pkg, function string) *Logger {
	return &Logger{
		fields: logrus.Fields{
			"function": function,
			"package":  pkg,
		},
	}
}

func (l *Logger) clone() *Logger {
	fields := make(logrus.Fields, len(l.fields)+2)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{fields: fields}
}

// Func returns a copy of the logger reporting a different function name.
func (l *Logger) Func(function string) *Logger {
	c := l.clone()
	c.fields["function"] = function
	return c
}

// WithField returns a copy of the logger with one extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	c := l.clone()
	c.fields[key] = value
	return c
}

// WithFields returns a copy of the logger with the given fields merged in.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	c := l.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

// WithError returns a copy of the logger carrying error details.
func (l *Logger) WithError(err error, operation string) *Logger {
	c := l.clone()
	if err != nil {
		c.fields["error"] = err.Error()
		c.fields["error_type"] = fmt.Sprintf("%T", err)
	}
	c.fields["operation"] = operation
	return c
}

// Fields returns a copy of the fields the logger will emit.
func (l *Logger) Fields() logrus.Fields {
	return l.clone().fields
}

// Debug logs a debug message.
func (l *Logger) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *Logger) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *Logger) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}

// BytesPreview returns log fields describing a byte slice without dumping
// all of it: a hex preview of the first bytes and the total size.
func BytesPreview(data []byte, name string) logrus.Fields {
	return logrus.Fields{
		name + "_hex":  HexDump(data),
		name + "_size": len(data),
	}
}

// HexDump renders bytes as space separated upper-case hex pairs, truncated
// after maxDumpBytes.
func HexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	n := len(data)
	if n > maxDumpBytes {
		n = maxDumpBytes
	}
	var b strings.Builder
	b.Grow(n * 3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", data[i])
	}
	if len(data) > n {
		fmt.Fprintf(&b, " ...(+%d)", len(data)-n)
	}
	return b.String()
}

// Configure sets the global logrus level, formatter and output.
// format is "text" or "json"; a nil out keeps stderr.
func Configure(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	return nil
}
