package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	Logger.SetLevel(logrus.InfoLevel)

	// LOG_LEVEL=debug wins over the config file until the config is applied.
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		_ = ApplyLevel(level)
	}
}

// WithComponent adds a component field to the logger
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}

// WithEntity tags an entry with the entity kind and action a mutation belongs to.
func WithEntity(component, kind, action string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"component": component,
		"entity":    kind,
		"action":    action,
	})
}

// ApplyLevel parses level (case-insensitive) and sets it on Logger.
// On parse failure the current level is kept and the error returned.
func ApplyLevel(level string) error {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return err
	}
	Logger.SetLevel(parsed)
	return nil
}
