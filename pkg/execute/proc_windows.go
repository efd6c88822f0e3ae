//go:build windows

package execute

import (
	"errors"
	"os/exec"
	"time"
)

// configureProcAttr is a no-op on Windows.
func configureProcAttr(cmd *exec.Cmd) {}

// configureCancel keeps the default cancel behavior (Process.Kill) and
// bounds Wait by the grace period so pipes are force-closed if the process
// lingers after cancellation.
func configureCancel(cmd *exec.Cmd, grace time.Duration) {
	cmd.WaitDelay = grace
}

// exitStatus extracts the exit code from a Wait error.
func exitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
