//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package rules

import "golang.org/x/sys/unix"

// osVersion is the kernel release reported by uname.
func osVersion() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Release[:])
}
