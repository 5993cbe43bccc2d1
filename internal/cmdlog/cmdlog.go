// Package cmdlog wraps CLI commands with run/error logging and command metrics.
package cmdlog

import (
	"time"

	"spreadscope/internal/logging"
	"spreadscope/internal/metrics"
)

// Run executes f as the named command. The error from f is returned unchanged.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	fields := map[string]any{"command": cmd, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		metrics.IncCommandError(cmd)
		fields["error"] = err.Error()
		logging.Error(cmd+"_error", fields)
	} else {
		logging.Info(cmd+"_ok", fields)
	}
	return err
}
