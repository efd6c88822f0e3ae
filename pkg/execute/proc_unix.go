//go:build unix

package execute

import (
	"errors"
	"os/exec"
	"syscall"
	"time"
)

// configureProcAttr places the child in its own process group so that
// termination signals reach the tool and every subprocess it spawns, not
// just the direct child.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// configureCancel installs two-phase termination: SIGTERM to the process
// group first, then SIGKILL to the group after the grace period if it is
// still alive. ESRCH from an already-dead group is harmless.
func configureCancel(cmd *exec.Cmd, grace time.Duration) {
	cmd.Cancel = func() error {
		pgid := -cmd.Process.Pid
		if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
			// SIGTERM failed (group already gone or not signalable), escalate.
			return syscall.Kill(pgid, syscall.SIGKILL)
		}
		go func() {
			time.Sleep(grace)
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}()
		return nil
	}
}

// exitStatus extracts the exit code from a Wait error. A signal death maps
// to the shell convention 128+signal so it can never be mistaken for the
// aborted sentinel.
func exitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), true
		}
		return exitErr.ExitCode(), true
	}
	return 0, false
}
