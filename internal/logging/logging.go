// Package logging wires the module-wide logrus logger: a level set from
// a CLI flag, applied once at startup. paramlog uses a separate zerolog
// logger for its narrow per-bind hot path; this package is everything
// else.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init sets the global logrus level and a stable text formatter. Callers
// pass logrus.Level directly so cmd/connectorctl's -loglevel flag can
// feed an int straight into logrus.Level(n).
func Init(level logrus.Level) {
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// WithDriver returns a logger entry tagged with the driver family name,
// for the handful of log lines a driver package emits on connect/close.
func WithDriver(name string) *logrus.Entry {
	return logrus.WithField("driver", name)
}
