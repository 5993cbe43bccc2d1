package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger passed into services.
type Logger = *logrus.Logger

// Fields are structured log fields.
type Fields = logrus.Fields

var std = New("info")

// New returns a JSON logger writing to stdout at the given level.
// Unknown levels fall back to info.
func New(level string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(ParseLevel(level))
	return l
}

func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Default is the process-wide logger used by the package helpers.
func Default() *logrus.Logger { return std }

// SetLevel changes the level of the default logger.
func SetLevel(level string) { std.SetLevel(ParseLevel(level)) }

// Or returns l, or the default logger when l is nil.
func Or(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return std
	}
	return l
}

func Log(level, msg string, fields map[string]any) {
	std.WithFields(logrus.Fields(fields)).Log(ParseLevel(level), msg)
}

func Info(msg string, fields map[string]any)  { Log("info", msg, fields) }
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }
