package internal

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logger.SetLevel(charmLevel(level))
}

// GetLogLevel returns the level the logger currently filters at
func GetLogLevel() LogLevel {
	switch logger.GetLevel() {
	case log.ErrorLevel, log.FatalLevel:
		return LogLevelError
	case log.WarnLevel:
		return LogLevelWarn
	case log.DebugLevel:
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, mainly for tests
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

func charmLevel(level LogLevel) log.Level {
	switch level {
	case LogLevelError:
		return log.ErrorLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelDebug:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// LogWith returns a logger that attaches the given key/value pairs to
// every record, e.g. LogWith("provider", p).Debug("list failed", "err", err).
// Secrets must never be passed as values.
func LogWith(keyvals ...interface{}) *log.Logger {
	return logger.With(keyvals...)
}
