package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tomato-novel/noveldl/internal/config"
	"github.com/tomato-novel/noveldl/internal/exitcodes"
	"github.com/tomato-novel/noveldl/internal/ui"
	"github.com/tomato-novel/noveldl/internal/update"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// updateCheckResult stores the result of the background update check
var (
	updateCheckResult *update.CheckResult
	updateCheckMu     sync.Mutex
)

var rootCmd = &cobra.Command{
	Use:           "noveldl",
	Short:         "Tomato Novel Downloader",
	Long:          "Download web novels and keep the application itself up to date.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize global UI config from flags after parsing but before
		// command execution
		ui.InitGlobal(ui.Config{
			NoColor: flagNoColor,
			NoEmoji: flagNoEmoji,
		})

		// Set NO_COLOR env so lipgloss and other libraries respect the flag
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}

		// Background update check (non-blocking); skipped for commands
		// where the notification would be disruptive.
		if !shouldSkipUpdateCheck(cmd) {
			go checkForUpdateBackground()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Show update notification if available (after command completes)
		updateCheckMu.Lock()
		result := updateCheckResult
		updateCheckMu.Unlock()
		if !shouldSkipUpdateCheck(cmd) && result != nil && result.UpdateAvailable {
			showUpdateNotification(result.LatestVersion)
		}
	},
}

var (
	flagHome           string
	flagFeed           string
	flagOutput         string
	flagQuiet          bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Application home directory (overrides env)")
	rootCmd.PersistentFlags().StringVar(&flagFeed, "feed", "", "Release feed base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output (suppresses extras)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	rootCmd.PersistentFlags().BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")

	// Replace root help to present grouped, example-rich output. Only the
	// root command gets the custom help; subcommands use cobra's default.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		// Help runs before PersistentPreRun, so configure colors manually
		c := ui.NewColorConfig()
		c.Enabled = c.Enabled && !flagNoColor
		c.EmojiEnabled = c.EmojiEnabled && !flagNoEmoji
		w := os.Stdout

		const cmdWidth = 28

		fmt.Fprintln(w, c.Header(" Tomato Novel Downloader "))
		fmt.Fprintln(w, c.Description("Download web novels and keep the application itself up to date."))
		fmt.Fprintln(w, c.Separator(50))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("USAGE"))
		fmt.Fprintf(w, "  %s <command> [flags]\n", "noveldl")
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Upgrades"))
		fmt.Fprintln(w, c.FormatCommandAligned("update", "Download and install the latest version", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("update --check", "Check for updates without installing", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("update status", "Show the outcome of the last update", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("update log", "Show or follow the update log", cmdWidth))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Utilities"))
		fmt.Fprintln(w, c.FormatCommandAligned("config", "Show the active configuration", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("version", "Show version information", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("completion <shell>", "Generate shell completion", cmdWidth))
		fmt.Fprintln(w)
	})
}

// silentErr wraps errors whose message was already printed by the
// command; Execute only maps them to an exit code.
type silentErr struct{ error }

func (s silentErr) Unwrap() error { return s.error }

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var se silentErr
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitcodes.CodeForError(err))
	}
}

// loadCfg reads defaults + config file via internal/config.Load() and
// then applies overrides from persistent flags.
func loadCfg() config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Malformed config is reported but not fatal for most commands.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if flagHome != "" {
		cfg.HomeDir = flagHome
	}
	if flagFeed != "" {
		cfg.FeedURL = flagFeed
	}
	return cfg
}
