// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance. The environment is read
// from HORSEMEN_APP_ENVIRONMENT.
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerFor(logLevel, os.Getenv("HORSEMEN_APP_ENVIRONMENT"), os.Stderr)
}

// NewLoggerFor creates a logger for an explicit environment and output.
// Logs go to stderr by default since stdout carries report output.
func NewLoggerFor(logLevel, environment string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}
