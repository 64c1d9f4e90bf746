//go:build windows

package cmd

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals retrigger treats as a termination
// request. SIGINT and SIGTERM are emulated by the Go runtime on Windows.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
