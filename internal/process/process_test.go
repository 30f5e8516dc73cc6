package process

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestAliveSelf(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Error("own process should be alive")
	}
	if Alive(0) || Alive(-1) {
		t.Error("non-positive pids are never alive")
	}
}

func TestWaitForExitTimesOutOnLivingProcess(t *testing.T) {
	start := time.Now()
	if WaitForExit(context.Background(), os.Getpid(), 100*time.Millisecond) {
		t.Fatal("own process reported as exited")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("wait took %v, expected prompt timeout", elapsed)
	}
}

func TestWaitForExitObservesExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep(1)")
	}
	cmd := exec.Command("sleep", "0.2")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	done := make(chan struct{})
	go func() { _ = cmd.Wait(); close(done) }()

	if !WaitForExit(context.Background(), pid, 5*time.Second) {
		t.Error("short-lived process not seen exiting")
	}
	<-done
}

func TestTerminate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sleep(1)")
	}
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	go func() { _ = cmd.Wait() }()

	if !Terminate(context.Background(), pid) {
		t.Error("process survived termination")
	}
}
