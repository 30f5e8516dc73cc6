package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user/system configuration for the updater.
// Values merge in order: defaults, config.yaml in HomeDir, environment.
type Config struct {
	HomeDir           string `yaml:"-"`
	RepoOwner         string `yaml:"repo_owner"`
	RepoName          string `yaml:"repo_name"`
	FeedURL           string `yaml:"feed_url"` // overrides the GitHub releases endpoint when set
	IncludePrerelease bool   `yaml:"include_prerelease"`
	Segments          int    `yaml:"segments"` // concurrent range requests per download (clamped to 2..8)
	CacheTTLMinutes   int    `yaml:"cache_ttl_minutes"`
}

const configFileName = "config.yaml"

// Defaults returns the stock configuration pointing at the public release feed.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		HomeDir:         filepath.Join(home, ".noveldl"),
		RepoOwner:       "tomato-novel",
		RepoName:        "noveldl",
		Segments:        0, // 0 = derive from available parallelism
		CacheTTLMinutes: 15,
	}
}

// Load returns the merged configuration. A missing config file is not an
// error; a malformed one is.
func Load() (Config, error) {
	cfg := Defaults()
	if v := os.Getenv("NOVELDL_HOME"); v != "" {
		cfg.HomeDir = v
	}

	path := filepath.Join(cfg.HomeDir, configFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration back to HomeDir/config.yaml.
func (c Config) Save() error {
	if err := os.MkdirAll(c.HomeDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.HomeDir, configFileName), data, 0o644)
}

// FeedBase returns the release-feed URL for the configured repository.
func (c Config) FeedBase() string {
	if c.FeedURL != "" {
		return c.FeedURL
	}
	return fmt.Sprintf("https://api.github.com/repos/%s/%s/releases", c.RepoOwner, c.RepoName)
}

// Token returns the optional access token used to raise the feed rate limit.
// Two names are honored for compatibility with CI environments.
func Token() string {
	if t := os.Getenv("GITHUB_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("GH_TOKEN")
}
