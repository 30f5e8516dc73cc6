package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomato-novel/noveldl/internal/config"
	"github.com/tomato-novel/noveldl/internal/ui"
	"github.com/tomato-novel/noveldl/internal/update"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		info := map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		}
		p := getPrinter()
		if p.Structured(info) {
			return
		}
		fmt.Printf("noveldl %s (%s) built %s\n", Version, Commit, BuildDate)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// checkForUpdateBackground performs a non-blocking update check using
// the persisted cache to avoid hitting the feed on every invocation.
// The result lands in updateCheckResult for PersistentPostRun.
func checkForUpdateBackground() {
	cfg := loadCfg()
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute

	// Cache first: re-verify against the running version in case the
	// binary was updated since the entry was written.
	cache, err := update.LoadCache(cfg.HomeDir)
	if err == nil && update.IsCacheValid(cache, ttl) {
		if cache.UpdateAvailable && update.IsNewer(Version, cache.LatestVersion) {
			updateCheckMu.Lock()
			updateCheckResult = &update.CheckResult{
				CurrentVersion:  strings.TrimPrefix(Version, "v"),
				LatestVersion:   cache.LatestVersion,
				UpdateAvailable: true,
			}
			updateCheckMu.Unlock()
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feed := update.NewFeedClient(nil, cfg.FeedBase(), config.Token())
	checker := update.NewChecker(feed, Version, ttl)
	result := checker.CheckResult(ctx, cfg.IncludePrerelease, false)
	if result == nil {
		return // feed unreachable; never disrupt the user's command
	}

	_ = update.SaveCache(cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   result.LatestVersion,
		UpdateAvailable: result.UpdateAvailable,
	})

	if result.UpdateAvailable {
		updateCheckMu.Lock()
		updateCheckResult = result
		updateCheckMu.Unlock()
	}
}

// showUpdateNotification displays an update notification after the
// command completes.
func showUpdateNotification(latestVersion string) {
	if flagOutput == "json" || flagOutput == "yaml" {
		return
	}
	if flagQuiet {
		return
	}

	c := ui.NewColorConfigFromGlobal()

	fmt.Println()
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
	fmt.Printf(c.Warning("  Update available: %s → %s\n"), Version, latestVersion)
	fmt.Println(c.Info("  Run: noveldl update"))
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
}

// shouldSkipUpdateCheck returns true for commands where update
// notifications are disruptive.
func shouldSkipUpdateCheck(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "update", "help", "version", "completion":
		return true
	}
	// Subcommands of update (status, log)
	if cmd.Parent() != nil && cmd.Parent().Name() == "update" {
		return true
	}
	return false
}
