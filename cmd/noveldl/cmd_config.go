package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomato-novel/noveldl/internal/exitcodes"
)

// configResult models the merged configuration for structured output.
type configResult struct {
	HomeDir           string `json:"home_dir"`
	ConfigFile        string `json:"config_file"`
	FeedURL           string `json:"feed_url"`
	IncludePrerelease bool   `json:"include_prerelease"`
	Segments          int    `json:"segments"`
	CacheTTLMinutes   int    `json:"cache_ttl_minutes"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadCfg()
	p := getPrinter()

	res := configResult{
		HomeDir:           cfg.HomeDir,
		ConfigFile:        filepath.Join(cfg.HomeDir, "config.yaml"),
		FeedURL:           cfg.FeedBase(),
		IncludePrerelease: cfg.IncludePrerelease,
		Segments:          cfg.Segments,
		CacheTTLMinutes:   cfg.CacheTTLMinutes,
	}
	if p.Structured(res) {
		return nil
	}

	p.Header("Configuration")
	p.KeyValueLine("Home", res.HomeDir, "blue")
	p.KeyValueLine("Config file", res.ConfigFile, "dim")
	p.KeyValueLine("Release feed", res.FeedURL, "blue")
	p.KeyValueLine("Prerelease", strconv.FormatBool(res.IncludePrerelease), "")
	segments := "auto"
	if res.Segments > 0 {
		segments = strconv.Itoa(res.Segments)
	}
	p.KeyValueLine("Segments", segments, "")
	p.KeyValueLine("Check cache TTL", fmt.Sprintf("%d min", res.CacheTTLMinutes), "")
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	cfg := loadCfg()

	switch key {
	case "feed_url":
		cfg.FeedURL = value
	case "include_prerelease":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return exitcodes.InvalidArgsErrorf("invalid boolean %q for %s", value, key)
		}
		cfg.IncludePrerelease = b
	case "segments":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return exitcodes.InvalidArgsErrorf("invalid segment count %q", value)
		}
		cfg.Segments = n
	case "cache_ttl_minutes":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return exitcodes.InvalidArgsErrorf("invalid TTL %q", value)
		}
		cfg.CacheTTLMinutes = n
	default:
		return exitcodes.InvalidArgsErrorf("unknown config key %q (valid: feed_url, include_prerelease, segments, cache_ttl_minutes)", key)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	getPrinter().Success(fmt.Sprintf("Set %s = %s", key, value))
	return nil
}

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		RunE:  runConfigShow,
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		RunE:  runConfigShow,
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	})
	rootCmd.AddCommand(configCmd)
}
