// Package telemetry carries the ambient logging and metrics stack: a
// colorized logrus logger in the teacher's console style, and Prometheus
// counters/gauges for segment and connection accounting. Per-connection
// correlation IDs live in internal/session.
package telemetry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a logrus.Logger configured with forced colors and a
// short timestamp, echoing pkg/logger's original console texture through
// logrus's formatter hooks instead of hand-rolled ANSI codes.
func NewLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return log
}

// Banner prints the startup banner. Kept as a plain fmt print, not a log
// line: it is a one-time human greeting, not an event.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                   SDTP -- stop & wait UDP                  ║
║              %-37s ║
║                    version %-7s                     ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, title, version)
}

// Section prints a section header, for dividing startup log output.
func Section(title string) {
	border := "───────────────────────────────────────────────────────────"
	fmt.Printf("\n%s\n %s\n%s\n\n", border, title, border)
}
