// Package logging wires up the process-wide verbose diagnostics logger:
// off by default, enabled by the CLI's -v flag.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.Logger writing to stderr at Debug level when
// verbose is true, Warn level otherwise (so the registry's mount/umount
// diagnostics stay silent unless asked for).
func New(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
