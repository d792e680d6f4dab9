// Package logger provides the shared structured logger for the module.
// Output goes to stderr so it never interferes with forwarded VHS output.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

var Log = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
	Prefix:          "vhs",
})

// SetDebug raises the log level to include resolution and download traces.
func SetDebug(on bool) {
	if on {
		Log.SetLevel(log.DebugLevel)
	} else {
		Log.SetLevel(log.WarnLevel)
	}
}
