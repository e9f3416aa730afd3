//go:build !windows

package execx

import (
	"errors"
	"os/exec"
	"syscall"
)

func exitCode(err error) int64 {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int64(ws.Signal())
			}
			return int64(ws.ExitStatus())
		}
		return int64(ee.ExitCode())
	}
	return 1
}
