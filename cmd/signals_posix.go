//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals retrigger treats as a termination
// request.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
