// Package logging builds the structured loggers used by the microservices.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers do not need to import logrus for structured fields.
type Fields = logrus.Fields

// New returns a JSON logger tagged with the service name. The level is read from LOG_LEVEL.
func New(service string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(Level())
	log.AddHook(serviceHook(service))

	return log
}

// Level maps LOG_LEVEL to a logrus level, defaulting to info.
func Level() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type serviceHook string

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["service"]; !ok {
		e.Data["service"] = string(h)
	}

	return nil
}
