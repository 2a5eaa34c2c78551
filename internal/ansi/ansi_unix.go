//go:build !windows

package ansi

import "os"

// EnableVirtualTerminal is a no-op on non-Windows systems; terminal emulators
// and the Linux console interpret VT100 sequences natively.
func EnableVirtualTerminal(f *os.File) error {
	return nil
}
