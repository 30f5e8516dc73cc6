package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOVELDL_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HomeDir != home {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, home)
	}
	if cfg.RepoOwner == "" || cfg.RepoName == "" {
		t.Error("expected default repo owner/name to be set")
	}
	if cfg.CacheTTLMinutes != 15 {
		t.Errorf("CacheTTLMinutes = %d, want 15", cfg.CacheTTLMinutes)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOVELDL_HOME", home)

	content := "repo_owner: someone\nrepo_name: fork\nsegments: 6\ninclude_prerelease: true\n"
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RepoOwner != "someone" || cfg.RepoName != "fork" {
		t.Errorf("repo = %s/%s, want someone/fork", cfg.RepoOwner, cfg.RepoName)
	}
	if cfg.Segments != 6 {
		t.Errorf("Segments = %d, want 6", cfg.Segments)
	}
	if !cfg.IncludePrerelease {
		t.Error("IncludePrerelease = false, want true")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOVELDL_HOME", home)

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("repo_owner: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestFeedBase(t *testing.T) {
	cfg := Config{RepoOwner: "o", RepoName: "r"}
	want := "https://api.github.com/repos/o/r/releases"
	if got := cfg.FeedBase(); got != want {
		t.Errorf("FeedBase() = %q, want %q", got, want)
	}

	cfg.FeedURL = "http://127.0.0.1:1234/releases"
	if got := cfg.FeedBase(); got != cfg.FeedURL {
		t.Errorf("FeedBase() = %q, want override %q", got, cfg.FeedURL)
	}
}

func TestToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	if Token() != "" {
		t.Error("expected empty token")
	}
	t.Setenv("GH_TOKEN", "alt")
	if Token() != "alt" {
		t.Error("expected GH_TOKEN fallback")
	}
	t.Setenv("GITHUB_TOKEN", "primary")
	if Token() != "primary" {
		t.Error("expected GITHUB_TOKEN to win")
	}
}
