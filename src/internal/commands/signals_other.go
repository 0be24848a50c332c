//go:build !unix

package commands

import "os"

// Only interrupt is deliverable; reload and report are unavailable.
var (
	serveSignals = []os.Signal{os.Interrupt}
	reloadSignal os.Signal
	reportSignal os.Signal
)
