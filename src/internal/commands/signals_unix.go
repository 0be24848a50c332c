//go:build unix

package commands

import (
	"os"
	"syscall"
)

var (
	serveSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1}
	reloadSignal os.Signal = syscall.SIGHUP
	reportSignal os.Signal = syscall.SIGUSR1
)
