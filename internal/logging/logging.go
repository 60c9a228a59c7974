// Package logging builds karapace's single shared logrus logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing text-formatted entries to stderr at level,
// falling back to info on an unparseable level name.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.Out = os.Stderr
	logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
