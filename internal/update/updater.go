package update

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/tomato-novel/noveldl/internal/config"
	"github.com/tomato-novel/noveldl/internal/download"
	"github.com/tomato-novel/noveldl/internal/lockfile"
	"github.com/tomato-novel/noveldl/internal/process"
	"github.com/tomato-novel/noveldl/internal/sysinfo"
	"github.com/tomato-novel/noveldl/internal/updatelog"
)

// ErrUpdateInProgress is returned when an update run is already active,
// either in this process or (via the lock file) in another one.
var ErrUpdateInProgress = errors.New("an update is already in progress")

const defaultLockTimeout = 10 * time.Second

// Updater orchestrates a full update: check, download, verify, stage,
// and handoff to the detached install helper.
type Updater struct {
	cfg      config.Config
	feed     *FeedClient
	checker  *Checker
	dl       *download.Downloader
	lock     *lockfile.Lock
	log      *updatelog.Logger
	events   EventFunc
	version  string
	execPath string

	mu      sync.Mutex
	running bool
}

// New creates an orchestrator for the current binary. currentVersion is
// the build's version string; events may be nil.
func New(cfg config.Config, currentVersion string, events EventFunc) (*Updater, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if real, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = real
	}

	feed := NewFeedClient(nil, cfg.FeedBase(), config.Token())
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	return &Updater{
		cfg:      cfg,
		feed:     feed,
		checker:  NewChecker(feed, currentVersion, ttl),
		dl:       download.New(cfg.Segments),
		lock:     lockfile.New(lockfile.DefaultPath()),
		log:      updatelog.New(updatelog.DefaultPath(), false),
		events:   events,
		version:  currentVersion,
		execPath: execPath,
	}, nil
}

// Feed exposes the release feed client for commands that fetch a
// specific version directly.
func (u *Updater) Feed() *FeedClient { return u.feed }

// Checker exposes the cached checker for the background pre-run probe.
func (u *Updater) Checker() *Checker { return u.checker }

// Check queries the feed and compares versions. The latest-release
// path goes through the cached checker, so repeat checks within the
// TTL do not hit the feed; --force and pinned versions always do.
// Unlike the background probe it surfaces feed errors, since the user
// asked explicitly.
func (u *Updater) Check(ctx context.Context, opts Options) (*CheckResult, error) {
	u.emit(Event{Kind: EventCheckStart})

	var info *ReleaseInfo
	var err error
	if opts.Version != "" {
		info, err = u.feed.ByTag(ctx, opts.Version)
	} else {
		info, err = u.checker.Latest(ctx, opts.Prerelease, opts.Force)
	}
	if err != nil {
		u.emit(Event{Kind: EventError, Err: err})
		return nil, err
	}

	result := &CheckResult{
		CurrentVersion:  u.version,
		LatestVersion:   info.Version,
		UpdateAvailable: opts.Force || opts.Version != "" || IsNewer(u.version, info.Version),
		Release:         info,
	}
	if result.UpdateAvailable {
		u.emit(Event{Kind: EventUpdateAvailable, Version: info.Version})
	} else {
		u.emit(Event{Kind: EventUpToDate, Version: info.Version})
	}
	return result, nil
}

// Download fetches the best-matching asset for this platform under the
// cross-process update lock and verifies size and checksum. On success
// the artifact path is returned; on any failure nothing is left on
// disk and the lock is released.
func (u *Updater) Download(ctx context.Context, info *ReleaseInfo, opts Options, progress download.ProgressFunc) (string, error) {
	if err := u.begin(); err != nil {
		return "", err
	}
	release := func() {
		u.lock.Release()
		u.end()
	}

	if u.lock.IsLocked() {
		u.end()
		return "", ErrUpdateInProgress
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	if !u.lock.Acquire(timeout) {
		u.end()
		return "", ErrUpdateInProgress
	}

	asset, err := SelectAsset(info, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		release()
		return "", err
	}

	if asset.Size > 0 {
		// Artifact plus the staged copy both land under the temp dir.
		if err := sysinfo.EnsureFree(os.TempDir(), uint64(asset.Size)*2); err != nil {
			release()
			u.log.Errorf("preflight failed: %v", err)
			u.emit(Event{Kind: EventError, Err: err})
			return "", err
		}
	}

	u.emit(Event{Kind: EventDownloadStart, Version: info.Version, Asset: asset.Name})
	u.log.Infof("downloading %s (%s)", asset.Name, info.Version)

	dest := filepath.Join(os.TempDir(), asset.Name)
	headers := map[string]string{
		"Accept":     "application/octet-stream",
		"User-Agent": userAgent,
	}
	if token := config.Token(); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if opts.Segments > 0 {
		u.dl = download.New(opts.Segments)
	}
	if err := u.dl.Download(ctx, asset.BrowserDownloadURL, dest, headers, progress); err != nil {
		release()
		u.log.Errorf("download failed: %v", err)
		u.emit(Event{Kind: EventError, Err: err})
		return "", err
	}
	u.emit(Event{Kind: EventDownloadDone, Asset: asset.Name})

	if err := u.verify(dest, asset, info, opts); err != nil {
		os.Remove(dest)
		release()
		u.log.Errorf("verification failed: %v", err)
		u.emit(Event{Kind: EventError, Err: err})
		return "", err
	}
	u.emit(Event{Kind: EventVerified, Asset: asset.Name})

	// Lock stays held; Install releases it after the helper handoff.
	return dest, nil
}

// Install stages the downloaded artifact, writes the helper manifest,
// and spawns the detached install helper. The update lock acquired by
// Download is released on return; the helper holds no lock since the
// staged state is private to it.
func (u *Updater) Install(ctx context.Context, artifactPath string, info *ReleaseInfo, opts Options) error {
	defer func() {
		u.lock.Release()
		u.end()
	}()

	staged, err := StageArtifact(artifactPath, "", filepath.Base(u.execPath))
	if err != nil {
		u.log.Errorf("staging failed: %v", err)
		u.emit(Event{Kind: EventError, Err: err})
		return err
	}
	u.emit(Event{Kind: EventStaged, Version: info.Version})

	manifest := &Manifest{
		StagingRoot:   staged.Root,
		PayloadRoot:   staged.PayloadRoot,
		TargetRoot:    filepath.Dir(u.execPath),
		WaitPID:       os.Getpid(),
		Restart:       !opts.NoRestart,
		LogPath:       u.log.Path(),
		InstallerPath: staged.InstallerPath,
		Cleanup:       true,
		CreatedAt:     time.Now(),
	}
	if manifest.Restart && staged.InstallerPath == "" {
		manifest.RestartCmd = []string{u.execPath}
	}
	if staged.InstallerPath != "" {
		// The installer relaunches the app itself.
		manifest.Restart = false
	}

	manifestPath := filepath.Join(staged.Root, "manifest.json")
	if err := WriteManifest(manifestPath, manifest); err != nil {
		os.RemoveAll(staged.Root)
		u.emit(Event{Kind: EventError, Err: err})
		return err
	}

	helper, err := u.helperPath()
	if err != nil {
		os.RemoveAll(staged.Root)
		u.emit(Event{Kind: EventError, Err: err})
		return err
	}
	if _, err := process.SpawnDetached(helper, []string{"--manifest", manifestPath, "--timeout", strconv.Itoa(60)}, filepath.Dir(u.execPath)); err != nil {
		os.RemoveAll(staged.Root)
		u.log.Errorf("failed to start install helper: %v", err)
		u.emit(Event{Kind: EventError, Err: err})
		return fmt.Errorf("failed to start install helper: %w", err)
	}

	u.log.Infof("installing update %s", info.Version)
	u.log.Successf("%s %s staged, helper started", updatelog.MarkerUpdateSuccess, info.Version)
	u.emit(Event{Kind: EventHelperSpawned, Version: info.Version})
	return nil
}

// Run performs the whole pipeline: check, download, install handoff.
// Returns (false, nil) when already up to date.
func (u *Updater) Run(ctx context.Context, opts Options, progress download.ProgressFunc) (bool, error) {
	result, err := u.Check(ctx, opts)
	if err != nil {
		return false, err
	}
	if !result.UpdateAvailable {
		return false, nil
	}
	artifact, err := u.Download(ctx, result.Release, opts, progress)
	if err != nil {
		return false, err
	}
	if err := u.Install(ctx, artifact, result.Release, opts); err != nil {
		os.Remove(artifact)
		return false, err
	}
	os.Remove(artifact)
	return true, nil
}

func (u *Updater) verify(path string, asset *Asset, info *ReleaseInfo, opts Options) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if asset.Size > 0 && st.Size() != asset.Size {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, got %d", asset.Name, asset.Size, st.Size())
	}
	if opts.SkipVerify {
		return nil
	}
	expected := info.ChecksumFor(asset.Name)
	if expected == "" {
		// Release body carried no digest for this asset. Size already
		// matched; proceed without failing the update.
		u.log.Warnf("no checksum published for %s", asset.Name)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", asset.Name, expected, actual)
	}
	return nil
}

// helperPath locates the install helper binary next to the running
// executable.
func (u *Updater) helperPath() (string, error) {
	name := "noveldl-updater"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(filepath.Dir(u.execPath), name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("install helper not found at %s", path)
	}
	return path, nil
}

func (u *Updater) begin() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running {
		return ErrUpdateInProgress
	}
	u.running = true
	return nil
}

func (u *Updater) end() {
	u.mu.Lock()
	u.running = false
	u.mu.Unlock()
}
