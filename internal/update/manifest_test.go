package update

import (
	"path/filepath"
	"testing"
	"time"
)

func validManifest() *Manifest {
	return &Manifest{
		StagingRoot: "/tmp/noveldl-stage-x",
		PayloadRoot: "/tmp/noveldl-stage-x/payload",
		TargetRoot:  "/opt/noveldl",
		WaitPID:     4242,
		Restart:     true,
		RestartCmd:  []string{"/opt/noveldl/noveldl"},
		LogPath:     "/tmp/noveldl-update.log",
		Cleanup:     true,
		CreatedAt:   time.Date(2025, 7, 20, 15, 42, 0, 0, time.UTC),
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	want := validManifest()
	if err := WriteManifest(path, want); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.StagingRoot != want.StagingRoot || got.PayloadRoot != want.PayloadRoot ||
		got.TargetRoot != want.TargetRoot || got.WaitPID != want.WaitPID {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.Restart || len(got.RestartCmd) != 1 || got.RestartCmd[0] != want.RestartCmd[0] {
		t.Errorf("restart fields mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestManifestNoRestartOmitsCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := validManifest()
	m.Restart = false
	m.RestartCmd = nil
	if err := WriteManifest(path, m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if got.Restart || len(got.RestartCmd) != 0 {
		t.Errorf("expected no restart, got %+v", got)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Manifest)
	}{
		{"missing staging_root", func(m *Manifest) { m.StagingRoot = "" }},
		{"missing payload_root", func(m *Manifest) { m.PayloadRoot = "" }},
		{"missing target_root", func(m *Manifest) { m.TargetRoot = "" }},
		{"restart without cmd", func(m *Manifest) { m.RestartCmd = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			if err := m.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Installer manifests do not need payload or target roots.
	m := validManifest()
	m.PayloadRoot = ""
	m.TargetRoot = ""
	m.InstallerPath = "/tmp/noveldl-stage-x/setup.exe"
	m.Restart = false
	m.RestartCmd = nil
	if err := m.Validate(); err != nil {
		t.Errorf("installer manifest should validate: %v", err)
	}
}

func TestLoadManifestRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected error for missing file")
	}
}
