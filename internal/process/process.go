// Package process wraps the handful of process operations the updater
// needs: liveness checks, bounded waits for exit, termination, and
// spawning a command detached from the current session.
package process

import (
	"context"
	"os/exec"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
)

const pollInterval = 500 * time.Millisecond

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gops.PidExists(int32(pid))
	return err == nil && ok
}

// WaitForExit polls until the process is gone or timeout elapses.
// Returns true when the process exited in time.
func WaitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !Alive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return !Alive(pid)
		case <-time.After(pollInterval):
		}
	}
}

// Terminate asks the process to exit, escalating to a hard kill when it
// ignores the request. Returns true when the process is gone afterward.
func Terminate(ctx context.Context, pid int) bool {
	proc, err := gops.NewProcess(int32(pid))
	if err != nil {
		return true // already gone
	}
	_ = proc.Terminate()
	if WaitForExit(ctx, pid, 3*time.Second) {
		return true
	}
	_ = proc.Kill()
	return WaitForExit(ctx, pid, 2*time.Second)
}

// SpawnDetached starts bin with args in dir, detached from the current
// session so it survives this process exiting. Stdio is discarded.
// Returns the child PID.
func SpawnDetached(bin string, args []string, dir string) (int, error) {
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Reap in the background in case we outlive the child.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
