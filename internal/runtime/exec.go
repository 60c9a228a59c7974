package runtime

import (
	"bytes"
	"os/exec"

	"github.com/marcoallegretti/karapace/internal/errs"
)

// outputBuf is a bytes.Buffer alias kept local so Exec implementations don't
// need to import bytes directly.
type outputBuf = bytes.Buffer

// runForeground runs cmd attached to the caller's stdio and translates a
// non-zero exit into an ErrRuntime, matching the teacher's syscall.Exec-style
// "replace or fail loudly" shell-out pattern without actually replacing the
// process (karapace needs to run cleanup after Enter returns).
func runForeground(cmd *exec.Cmd) error {
	if err := cmd.Run(); err != nil {
		return errs.Wrap(errs.ErrRuntime, "running %s: %w", cmd.Path, err)
	}
	return nil
}

// exitCode extracts a command's exit status, or -1 if it never started.
func exitCode(cmd *exec.Cmd, runErr error) int {
	if runErr == nil {
		return 0
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
