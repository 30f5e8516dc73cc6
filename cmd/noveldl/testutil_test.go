package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomato-novel/noveldl/internal/config"
	"github.com/tomato-novel/noveldl/internal/download"
	"github.com/tomato-novel/noveldl/internal/ui"
	"github.com/tomato-novel/noveldl/internal/update"
)

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

func testCfg(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.HomeDir = t.TempDir()
	return cfg
}

func testPrinter() ui.Printer { return ui.NewPrinterFromGlobal("text") }

func containsSubstr(s, substr string) bool { return strings.Contains(s, substr) }

// saveFreshCache writes a just-checked cache entry under homeDir.
func saveFreshCache(homeDir, latest string, available bool) error {
	return update.SaveCache(homeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   latest,
		UpdateAvailable: available,
	})
}

// nonInteractivePrompter answers every prompt with a fixed response.
type nonInteractivePrompter struct {
	response string
	err      error
}

func (p *nonInteractivePrompter) ReadLine(prompt string) (string, error) {
	return p.response, p.err
}

// mockRunner implements updateRunner for testing.
type mockRunner struct {
	result   *update.CheckResult
	checkErr error

	artifact    string
	downloadErr error
	downloaded  bool

	installErr error
	installed  bool
}

func (m *mockRunner) Check(ctx context.Context, opts update.Options) (*update.CheckResult, error) {
	return m.result, m.checkErr
}

func (m *mockRunner) Download(ctx context.Context, info *update.ReleaseInfo, opts update.Options, progress download.ProgressFunc) (string, error) {
	m.downloaded = true
	if m.downloadErr != nil {
		return "", m.downloadErr
	}
	if progress != nil {
		progress(512, 1024)
		progress(1024, 1024)
	}
	return m.artifact, nil
}

func (m *mockRunner) Install(ctx context.Context, artifactPath string, info *update.ReleaseInfo, opts update.Options) error {
	m.installed = true
	return m.installErr
}
