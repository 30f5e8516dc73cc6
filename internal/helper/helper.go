// Package helper implements the detached install helper. It runs after
// the main application has staged an update and exited: wait for the
// old process to go away, replace the installed files (or run the
// platform installer), then optionally relaunch the application.
//
// The helper has no UI. Everything it does is reported through the
// shared update log, which the application inspects on next start.
package helper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/tomato-novel/noveldl/internal/process"
	"github.com/tomato-novel/noveldl/internal/update"
	"github.com/tomato-novel/noveldl/internal/updatelog"
)

// State names the phases of a helper run.
type State string

const (
	StateWaitForExit State = "WAIT_FOR_EXIT"
	StateInstall     State = "INSTALL"
	StateRestart     State = "RESTART"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

const defaultWaitTimeout = 60 * time.Second

// Runner executes one install described by a manifest.
type Runner struct {
	manifest    *update.Manifest
	log         *updatelog.Logger
	waitTimeout time.Duration
}

// New loads the manifest at path. timeout bounds the wait for the old
// process; zero selects the default 60 seconds.
func New(manifestPath string, timeout time.Duration) (*Runner, error) {
	m, err := update.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	logPath := m.LogPath
	if logPath == "" {
		logPath = updatelog.DefaultPath()
	}
	return &Runner{
		manifest:    m,
		log:         updatelog.New(logPath, false),
		waitTimeout: timeout,
	}, nil
}

// Run drives the state machine to DONE or FAILED. The returned error is
// non-nil exactly when the run failed; every transition is also logged.
// Staging is removed on both outcomes when the manifest asks for
// cleanup; a failed install additionally rolls replaced files back from
// their .backup siblings.
func (r *Runner) Run(ctx context.Context) error {
	r.transition(StateWaitForExit)
	r.waitForExit(ctx)

	r.transition(StateInstall)
	replaced, err := r.install(ctx)
	if err != nil {
		r.log.Errorf("install failed: %v", err)
		r.restoreBackups(replaced)
		r.cleanupStaging()
		r.transition(StateFailed)
		return err
	}
	r.log.Successf("%s files installed", updatelog.MarkerInstallerSuccess)
	r.removeBackups(replaced)
	r.cleanupStaging()

	if r.manifest.Restart && len(r.manifest.RestartCmd) > 0 {
		r.transition(StateRestart)
		r.restart()
	}

	r.transition(StateDone)
	return nil
}

func (r *Runner) cleanupStaging() {
	if !r.manifest.Cleanup {
		return
	}
	if err := os.RemoveAll(r.manifest.StagingRoot); err != nil {
		r.log.Warnf("failed to remove staging dir: %v", err)
	}
}

// restoreBackups puts the original files back after an aborted install,
// so the target is never left half old and half new.
func (r *Runner) restoreBackups(replaced []string) {
	for _, dest := range replaced {
		// Windows refuses to rename over an existing file.
		os.Remove(dest)
		if err := os.Rename(dest+backupSuffix, dest); err != nil {
			r.log.Warnf("failed to restore %s: %v", dest, err)
			continue
		}
		r.log.Infof("restored %s", dest)
	}
}

// removeBackups drops the .backup siblings once the install is known
// good, so updates do not accumulate a shadow copy of the tree.
func (r *Runner) removeBackups(replaced []string) {
	for _, dest := range replaced {
		if err := os.Remove(dest + backupSuffix); err != nil {
			r.log.Warnf("failed to remove backup of %s: %v", dest, err)
		}
	}
}

func (r *Runner) transition(s State) {
	r.log.Infof("state: %s", s)
}

// waitForExit waits for the launching process to go away, escalating to
// forced termination when it lingers past the timeout. Installation
// proceeds regardless: on most platforms a still-running binary only
// makes individual file replacements fail, which install reports.
func (r *Runner) waitForExit(ctx context.Context) {
	pid := r.manifest.WaitPID
	if pid <= 0 || !process.Alive(pid) {
		return
	}
	if process.WaitForExit(ctx, pid, r.waitTimeout) {
		return
	}
	r.log.Warnf("process %d still running after %s, terminating", pid, r.waitTimeout)
	if !process.Terminate(ctx, pid) {
		r.log.Warnf("process %d survived termination, installing anyway", pid)
	}
}

// install replaces the target files, reporting which destinations had
// an existing file moved aside to a .backup sibling. The installer
// branch manages its own rollback and reports none.
func (r *Runner) install(ctx context.Context) (replaced []string, err error) {
	if r.manifest.InstallerPath != "" {
		return nil, r.runInstaller(ctx)
	}
	return r.copyTree(r.manifest.PayloadRoot, r.manifest.TargetRoot)
}

// runInstaller hands the job to a platform installer executable and
// waits for it to finish.
func (r *Runner) runInstaller(ctx context.Context) error {
	pid, err := process.SpawnDetached(r.manifest.InstallerPath, installerArgs(), filepath.Dir(r.manifest.InstallerPath))
	if err != nil {
		return fmt.Errorf("failed to start installer: %w", err)
	}
	r.log.Infof("installer started (pid %d)", pid)
	// Installers can take a while; bound the wait generously.
	if !process.WaitForExit(ctx, pid, 10*time.Minute) {
		return fmt.Errorf("installer did not finish")
	}
	return nil
}

const backupSuffix = ".backup"

// copyTree replaces target files with the staged payload. Each file is
// written to a temp sibling and renamed over the destination so a
// reader never sees a half-written binary. The previous file is moved
// aside as a .backup sibling; the returned list names every
// destination that got one, so the caller can roll back or discard.
func (r *Runner) copyTree(payloadRoot, targetRoot string) ([]string, error) {
	var replaced []string
	err := filepath.Walk(payloadRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(payloadRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dest := filepath.Join(targetRoot, rel)

		if info.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		backedUp, err := replaceFile(path, dest, info.Mode().Perm())
		if backedUp {
			replaced = append(replaced, dest)
		}
		if err != nil {
			return fmt.Errorf("replace %s: %w", rel, err)
		}
		r.log.Infof("installed %s", rel)
		return nil
	})
	return replaced, err
}

// replaceFile reports whether an existing destination was moved aside
// to a .backup sibling, even when a later step fails; the caller owns
// the backup either way.
func replaceFile(src, dest string, mode os.FileMode) (backedUp bool, err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".new-*")
	if err != nil {
		return false, err
	}
	tmpPath := tmp.Name()
	in, err := os.Open(src)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, err
	}
	_, copyErr := io.Copy(tmp, in)
	in.Close()
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(tmpPath)
		return false, copyErr
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return false, err
	}

	if _, err := os.Stat(dest); err == nil {
		// Keep the old file; Windows also refuses to rename over a
		// running executable, moving it aside works.
		backup := dest + backupSuffix
		os.Remove(backup)
		if err := os.Rename(dest, backup); err != nil {
			os.Remove(tmpPath)
			return false, err
		}
		backedUp = true
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return backedUp, err
	}
	return backedUp, nil
}

// restart relaunches the application detached. Failure here is a
// warning, not a failed install: the update is already on disk.
func (r *Runner) restart() {
	cmd := r.manifest.RestartCmd
	dir := r.manifest.TargetRoot
	if dir == "" {
		dir = filepath.Dir(cmd[0])
	}
	pid, err := process.SpawnDetached(cmd[0], cmd[1:], dir)
	if err != nil {
		r.log.Warnf("failed to restart application: %v", err)
		return
	}
	r.log.Infof("application restarted (pid %d)", pid)
}
