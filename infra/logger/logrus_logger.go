package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger implements Logger on top of sirupsen/logrus.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger writes JSON lines to stdout, or colored text when APP_ENV=dev.
func NewLogrusLogger(component string) Logger {
	var f logrus.Formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		f = &logrus.TextFormatter{FullTimestamp: true}
	}
	return NewLogrusWithWriter(component, os.Stdout, f)
}

// NewLogrusWithWriter builds a logger on w with formatter f.
func NewLogrusWithWriter(component string, w io.Writer, f logrus.Formatter) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(f)
	l.SetLevel(logrusLevelFromEnv())
	return &LogrusLogger{entry: l.WithField("component", component)}
}

func logrusLevelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// With returns a child logger carrying the extra fields on every line.
func (l *LogrusLogger) With(fields map[string]any) *LogrusLogger {
	return &LogrusLogger{entry: l.entry.WithFields(fields)}
}

func (l *LogrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

func (l *LogrusLogger) Debugw(msg string, fields map[string]any) {
	l.entry.WithFields(fields).Debug(msg)
}

func (l *LogrusLogger) Infof(format string, args ...any) { l.entry.Infof(format, args...) }

func (l *LogrusLogger) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

func (l *LogrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
