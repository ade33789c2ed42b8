// Package util provides low-level helpers shared by all other packages.
package util

import (
	"bytes"
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.  It is a thin shim over a private logrus.Logger
// so every package keeps the familiar Info/Verbose/Debug vocabulary.
type Logger struct {
	level LogLevel
	log   *logrus.Logger
	fmt   *lineFormatter
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	f := &lineFormatter{}
	f.timestamps.Store(verbosity >= 3) // auto-enable timestamps in debug mode

	return &Logger{
		level: LogLevel(verbosity),
		fmt:   f,
		log: &logrus.Logger{
			Out:       os.Stderr,
			Formatter: f,
			Hooks:     make(logrus.LevelHooks),
			Level:     logrusLevel(LogLevel(verbosity)),
		},
	}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) { l.fmt.timestamps.Store(on) }

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) { l.log.SetOutput(w) }

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log.Tracef(format, args...)
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func logrusLevel(v LogLevel) logrus.Level {
	switch {
	case v >= LogDebug:
		return logrus.TraceLevel
	case v == LogVerbose:
		return logrus.DebugLevel
	case v == LogNormal:
		return logrus.InfoLevel
	default:
		return logrus.ErrorLevel
	}
}

// lineFormatter renders "[LVL] message" lines, optionally prefixed
// with a wall-clock timestamp.
type lineFormatter struct {
	timestamps atomic.Bool
}

var levelTags = map[logrus.Level]string{ //nolint:gochecknoglobals
	logrus.PanicLevel: "ERR",
	logrus.FatalLevel: "ERR",
	logrus.ErrorLevel: "ERR",
	logrus.WarnLevel:  "WRN",
	logrus.InfoLevel:  "INF",
	logrus.DebugLevel: "VRB",
	logrus.TraceLevel: "DBG",
}

// Format implements logrus.Formatter.
func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if f.timestamps.Load() {
		b.WriteString(e.Time.Format("15:04:05.000"))
		b.WriteByte(' ')
	}
	b.WriteByte('[')
	b.WriteString(levelTags[e.Level])
	b.WriteString("] ")
	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}
