package helper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomato-novel/noveldl/internal/update"
	"github.com/tomato-novel/noveldl/internal/updatelog"
)

// stageFixture lays out a staging dir with a payload and a manifest,
// returning the manifest path and the target dir the install writes to.
func stageFixture(t *testing.T, payload map[string]string, mutate func(*update.Manifest)) (string, string, string) {
	t.Helper()
	base := t.TempDir()
	staging := filepath.Join(base, "staging")
	payloadRoot := filepath.Join(staging, "payload")
	target := filepath.Join(base, "target")
	for _, dir := range []string{payloadRoot, target} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for name, body := range payload {
		path := filepath.Join(payloadRoot, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	logPath := filepath.Join(base, "update.log")
	m := &update.Manifest{
		StagingRoot: staging,
		PayloadRoot: payloadRoot,
		TargetRoot:  target,
		WaitPID:     0, // nothing to wait for
		LogPath:     logPath,
		Cleanup:     true,
		CreatedAt:   time.Now(),
	}
	if mutate != nil {
		mutate(m)
	}
	manifestPath := filepath.Join(base, "manifest.json")
	if err := update.WriteManifest(manifestPath, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	return manifestPath, target, logPath
}

func TestRunInstallsPayload(t *testing.T) {
	manifestPath, target, logPath := stageFixture(t, map[string]string{
		"noveldl":        "new-binary",
		"data/rules.yml": "rules",
	}, nil)

	r, err := New(manifestPath, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, want := range map[string]string{
		"noveldl":        "new-binary",
		"data/rules.yml": "rules",
	} {
		data, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(name)))
		if err != nil || string(data) != want {
			t.Errorf("%s = %q, %v", name, data, err)
		}
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	logText := string(logData)
	for _, want := range []string{
		"state: " + string(StateWaitForExit),
		"state: " + string(StateInstall),
		updatelog.MarkerInstallerSuccess,
		"state: " + string(StateDone),
	} {
		if !strings.Contains(logText, want) {
			t.Errorf("log missing %q:\n%s", want, logText)
		}
	}
	if strings.Contains(logText, string(StateFailed)) {
		t.Error("log reports failure")
	}

	// Cleanup removed the staging dir.
	if _, err := os.Stat(filepath.Dir(filepath.Dir(manifestPath))); err != nil {
		t.Fatal("fixture layout changed")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(manifestPath), "staging")); !os.IsNotExist(err) {
		t.Error("staging dir not cleaned up")
	}
}

func TestRunRemovesBackupsAfterSuccess(t *testing.T) {
	manifestPath, target, _ := stageFixture(t, map[string]string{"noveldl": "v2"}, nil)
	if err := os.WriteFile(filepath.Join(target, "noveldl"), []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}

	r, err := New(manifestPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if data, _ := os.ReadFile(filepath.Join(target, "noveldl")); string(data) != "v2" {
		t.Errorf("target = %q, want v2", data)
	}
	if _, err := os.Stat(filepath.Join(target, "noveldl.backup")); !os.IsNotExist(err) {
		t.Error("backup left behind after a successful install")
	}
}

func TestRunRestoresBackupsOnFailedInstall(t *testing.T) {
	// "app" is replaced first; "zz/inner" then fails because the target
	// already has a regular file named "zz".
	manifestPath, target, _ := stageFixture(t, map[string]string{
		"app":      "v2",
		"zz/inner": "x",
	}, nil)
	if err := os.WriteFile(filepath.Join(target, "app"), []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(target, "zz"), []byte("in the way"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := New(manifestPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected install failure")
	}

	if data, _ := os.ReadFile(filepath.Join(target, "app")); string(data) != "v1" {
		t.Errorf("app = %q, want original v1 restored", data)
	}
	if _, err := os.Stat(filepath.Join(target, "app.backup")); !os.IsNotExist(err) {
		t.Error("backup left behind after rollback")
	}
}

func TestRunCleansStagingOnFailedInstall(t *testing.T) {
	manifestPath, target, logPath := stageFixture(t, map[string]string{
		"sub/noveldl": "v2",
	}, nil)
	// A regular file where the payload wants a directory makes the
	// install fail partway.
	if err := os.WriteFile(filepath.Join(target, "sub"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := New(manifestPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected install failure")
	}

	staging := filepath.Join(filepath.Dir(manifestPath), "staging")
	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Error("staging dir not cleaned up after failure")
	}
	logData, _ := os.ReadFile(logPath)
	if !strings.Contains(string(logData), "state: "+string(StateFailed)) {
		t.Error("failure not logged")
	}
}

func TestRunFailsOnUnwritableTarget(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	manifestPath, target, logPath := stageFixture(t, map[string]string{"noveldl": "v2"}, nil)
	if err := os.Chmod(target, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(target, 0o755)

	r, err := New(manifestPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected install failure")
	}

	logData, _ := os.ReadFile(logPath)
	if !strings.Contains(string(logData), "state: "+string(StateFailed)) {
		t.Error("failure not logged")
	}
	if strings.Contains(string(logData), updatelog.MarkerInstallerSuccess) {
		t.Error("success marker logged on failure")
	}
}

func TestNewRejectsBadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, time.Second); err == nil {
		t.Error("expected validation error for empty manifest")
	}
}
