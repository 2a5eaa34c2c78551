//go:build !windows

package boot

import "syscall"

// execProcess replaces the current process image. It only returns on error.
func (x *ExecExecutor) execProcess(path string, argv []string, env []string) error {
	return syscall.Exec(path, argv, env)
}
