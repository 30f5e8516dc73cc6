//go:build !windows

package process

import "syscall"

// detachedAttr puts the child in its own session so it is not killed
// with our process group.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
