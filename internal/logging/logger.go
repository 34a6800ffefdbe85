package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields mirrors logrus.Fields so callers need not import logrus
type Fields map[string]interface{}

// Log wraps logrus.Logger
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry
type Entry struct {
	*logrus.Entry
}

var global = New()

// New creates a text logger at info level writing to stderr.
// PRICECMP_LOG_LEVEL overrides the level.
func New() *Log {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(strings.ToLower(os.Getenv("PRICECMP_LOG_LEVEL"))); err == nil {
		logger.SetLevel(lvl)
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return &Log{Logger: logger}
}

// Default returns the process-wide logger
func Default() *Log {
	return global
}

// Discard returns a logger that drops everything (for tests)
func Discard() *Log {
	l := New()
	l.SetOutput(io.Discard)
	return l
}

func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// Configure sets level, format ("json" or "text") and output ("stdout",
// "stderr" or a file path). File output rotates through lumberjack when
// maxAgeDays is positive.
func (l *Log) Configure(level, format, output string, maxAgeDays int) error {
	if env := os.Getenv("PRICECMP_LOG_LEVEL"); env != "" {
		level = env
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s'", level)
	}
	l.SetLevel(lvl)

	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		return fmt.Errorf("invalid log format '%s'", format)
	}

	switch output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "stderr", "":
		l.SetOutput(os.Stderr)
	default:
		if maxAgeDays > 0 {
			l.SetOutput(&lumberjack.Logger{
				Filename: output,
				MaxAge:   maxAgeDays,
				MaxSize:  10,
				Compress: true,
			})
			return nil
		}
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file '%s': %w", output, err)
		}
		l.SetOutput(file)
	}

	return nil
}
