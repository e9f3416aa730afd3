//go:build windows

package execx

import (
	"errors"
	"os/exec"
)

func exitCode(err error) int64 {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return int64(ee.ExitCode())
	}
	return 1
}
