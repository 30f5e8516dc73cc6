package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomato-novel/noveldl/internal/config"
	"github.com/tomato-novel/noveldl/internal/download"
	"github.com/tomato-novel/noveldl/internal/exitcodes"
	"github.com/tomato-novel/noveldl/internal/ui"
	"github.com/tomato-novel/noveldl/internal/update"
	"github.com/tomato-novel/noveldl/internal/updatelog"
)

// updateRunner abstracts the orchestrator for testability.
type updateRunner interface {
	Check(ctx context.Context, opts update.Options) (*update.CheckResult, error)
	Download(ctx context.Context, info *update.ReleaseInfo, opts update.Options, progress download.ProgressFunc) (string, error)
	Install(ctx context.Context, artifactPath string, info *update.ReleaseInfo, opts update.Options) error
}

type updateCoreOpts struct {
	checkOnly      bool
	currentVersion string
	opts           update.Options
}

// runUpdateCore contains the core update flow, testable with a mocked
// runner.
func runUpdateCore(ctx context.Context, runner updateRunner, cfg config.Config, core updateCoreOpts, p ui.Printer, prompter Prompter) error {
	if core.opts.Version != "" {
		p.Info(fmt.Sprintf("Fetching release %s...", core.opts.Version))
	} else {
		p.Info("Checking for updates...")
	}

	result, err := runner.Check(ctx, core.opts)
	if err != nil {
		return exitcodes.WrapError(exitcodes.NetworkError, "failed to fetch release", err)
	}

	_ = update.SaveCache(cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   result.LatestVersion,
		UpdateAvailable: result.UpdateAvailable,
	})

	current := strings.TrimPrefix(core.currentVersion, "v")
	if !result.UpdateAvailable {
		p.Success(fmt.Sprintf("Already up to date (%s)", current))
		return nil
	}

	release := result.Release
	fmt.Println()
	p.Info(fmt.Sprintf("Update available: %s → %s", current, release.Version))

	// Changelog preview (first 10 lines)
	if release.Body != "" {
		p.Section("Changelog")
		lines := strings.Split(release.Body, "\n")
		maxLines := 10
		if len(lines) < maxLines {
			maxLines = len(lines)
		}
		for _, line := range lines[:maxLines] {
			p.Textf("  %s\n", line)
		}
		if len(lines) > 10 && release.HTMLURL != "" {
			p.Textf("  ... (see %s for full changelog)\n", release.HTMLURL)
		}
	}
	fmt.Println()

	if core.checkOnly {
		p.Info("Run 'noveldl update' to install")
		return nil
	}

	if !core.opts.Force && !confirm(prompter, "Update now?") {
		p.Warn("Update cancelled")
		return nil
	}

	artifact, err := downloadWithProgress(ctx, runner, release, core.opts)
	if err != nil {
		if errors.Is(err, update.ErrUpdateInProgress) {
			ui.PrintError(ui.ErrorMessage{
				Problem: "Another update is already in progress",
				Causes: []string{
					"A second noveldl process is downloading this update",
					"The install helper from a previous run has not finished",
				},
				Actions: []string{
					"Wait for the other update to finish and retry",
				},
				Hints: []string{
					"noveldl update log --follow",
				},
			})
			return silentErr{exitcodes.LockedErr("another update is already in progress")}
		}
		return exitcodes.WrapError(exitcodes.NetworkError, "download failed", err)
	}
	p.Success("Download verified")

	p.Info("Staging update...")
	if err := runner.Install(ctx, artifact, release, core.opts); err != nil {
		os.Remove(artifact)
		return exitcodes.WrapError(exitcodes.ProcessError, "failed to stage update", err)
	}
	os.Remove(artifact)

	fmt.Println()
	p.Success(fmt.Sprintf("Update %s staged", release.Version))
	if core.opts.NoRestart {
		p.Info("Exit noveldl to let the installer finish.")
	} else {
		p.Info("noveldl will restart automatically once the installer finishes.")
	}
	return nil
}

// downloadWithProgress renders download progress: a bubbletea TUI on an
// interactive terminal, a plain progress bar otherwise.
func downloadWithProgress(ctx context.Context, runner updateRunner, release *update.ReleaseInfo, opts update.Options) (string, error) {
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !flagQuiet && !flagNonInteractive

	if !interactive {
		bar := ui.NewProgressBar(os.Stdout, 0)
		var started bool
		artifact, err := runner.Download(ctx, release, opts, func(downloaded, total int64) {
			if !started {
				bar = ui.NewProgressBar(os.Stdout, total)
				started = true
			}
			bar.Update(downloaded)
		})
		bar.Finish()
		return artifact, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan ui.DownloadProgress, 1)
	results := make(chan ui.DownloadResult, 1)
	var artifact string
	go func() {
		var err error
		artifact, err = runner.Download(ctx, release, opts, func(downloaded, total int64) {
			select {
			case updates <- ui.DownloadProgress{Downloaded: downloaded, Total: total}:
			default:
			}
		})
		results <- ui.DownloadResult{Err: err}
	}()

	if err := ui.RunDownloadTUI("Downloading "+release.Version, updates, results, cancel); err != nil {
		return "", err
	}
	return artifact, nil
}

func newUpdateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of the last update attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := updatelog.ScanStatus(updatelog.DefaultPath())
			if err != nil {
				return err
			}
			p := getPrinter()
			if p.Structured(map[string]any{
				"log_exists":   st.LogExists,
				"last_attempt": st.LastAttempt,
				"succeeded":    st.Succeeded,
				"error":        st.ErrorLine,
			}) {
				return nil
			}

			if !st.LogExists {
				p.Info("No update has been attempted yet")
				return nil
			}
			if st.LastAttempt != "" {
				p.KeyValueLine("Last attempt", st.LastAttempt, "")
			}
			if st.Succeeded {
				fmt.Println(p.Colors.StatusIcon("success"), "Last update completed successfully")
			} else if st.ErrorLine != "" {
				fmt.Println(p.Colors.StatusIcon("failed"), "Last update failed")
				p.KeyValueLine("Detail", st.ErrorLine, "dim")
			} else {
				p.Warn("No completed update recorded")
			}
			return nil
		},
	}
}

func newUpdateLogCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show or follow the update log",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := updatelog.DefaultPath()
			if !follow {
				data, err := os.ReadFile(path)
				if os.IsNotExist(err) {
					getPrinter().Info("No update log yet")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Print(string(data))
				return nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := updatelog.Follow(ctx, path, func(line string) {
				fmt.Println(line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep following new log lines")
	return cmd
}

func init() {
	var (
		checkOnly  bool
		force      bool
		prerelease bool
		version    string
		skipVerify bool
		noRestart  bool
		segments   int
	)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update noveldl to the latest version",
		Long: `Check for and install the latest version of noveldl.

The update command downloads the release artifact for this platform,
verifies its checksum, stages it, and hands installation to a separate
helper process that finishes after noveldl exits.

Examples:
  noveldl update                   # Update to latest version
  noveldl update --check           # Check only, don't install
  noveldl update --force           # Skip confirmation and version check
  noveldl update --version 1.2.0   # Install a specific version
  noveldl update status            # Outcome of the last attempt
  noveldl update log --follow      # Watch the installer work`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadCfg()
			if prerelease {
				cfg.IncludePrerelease = true
			}
			if segments > 0 {
				cfg.Segments = segments
			}

			updater, err := update.New(cfg, Version, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize updater: %w", err)
			}

			core := updateCoreOpts{
				checkOnly:      checkOnly,
				currentVersion: Version,
				opts: update.Options{
					Force:      force,
					Prerelease: cfg.IncludePrerelease,
					NoRestart:  noRestart,
					SkipVerify: skipVerify,
					Version:    version,
					Segments:   cfg.Segments,
				},
			}
			return runUpdateCore(cmd.Context(), updater, cfg, core, getPrinter(), ttyPrompter{})
		},
	}

	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
	updateCmd.Flags().BoolVar(&force, "force", false, "Skip confirmation and version comparison")
	updateCmd.Flags().BoolVar(&prerelease, "prerelease", false, "Consider prerelease versions")
	updateCmd.Flags().StringVar(&version, "version", "", "Install specific version (e.g., 1.2.0)")
	updateCmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Skip checksum verification (not recommended)")
	updateCmd.Flags().BoolVar(&noRestart, "no-restart", false, "Do not relaunch noveldl after installing")
	updateCmd.Flags().IntVar(&segments, "segments", 0, "Concurrent download segments (0 = auto)")

	updateCmd.AddCommand(newUpdateStatusCmd())
	updateCmd.AddCommand(newUpdateLogCmd())

	rootCmd.AddCommand(updateCmd)
}
