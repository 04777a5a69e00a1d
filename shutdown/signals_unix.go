//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// SIGHUP covers the terminal going away under the TUI.
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
