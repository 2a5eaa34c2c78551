//go:build windows

package boot

import (
	"errors"
	"os"
	"os/exec"
)

// execProcess runs the command to completion and exits with its status,
// since Windows cannot replace the running image.
func (x *ExecExecutor) execProcess(path string, argv []string, env []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return err
		}
		x.exit(exitErr.ExitCode())
		return ErrReturned
	}
	x.exit(0)
	return ErrReturned
}
