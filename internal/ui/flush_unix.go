//go:build !windows

package ui

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// FlushStdinWithTimeout reads and discards stdin for the given duration
// to swallow asynchronous terminal responses. Only flushes when stdin
// is a terminal — never reads from pipes, which would consume piped
// input.
func FlushStdinWithTimeout(timeout time.Duration) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	if err := syscall.SetNonblock(fd, true); err != nil {
		return
	}
	defer syscall.SetNonblock(fd, false)

	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, _ := os.Stdin.Read(buf)
		if n <= 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
