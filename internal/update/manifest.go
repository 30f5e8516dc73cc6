package update

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Manifest is the handoff contract between the main application and the
// detached install helper. The orchestrator writes it once next to the
// staged payload; the helper reads it and acts on it alone.
type Manifest struct {
	StagingRoot   string    `json:"staging_root"`             // temp dir holding the staged files
	PayloadRoot   string    `json:"payload_root"`             // dir whose contents replace the target
	TargetRoot    string    `json:"target_root"`              // install destination
	WaitPID       int       `json:"wait_pid"`                 // process to wait for before installing
	Restart       bool      `json:"restart"`                  // relaunch after install
	RestartCmd    []string  `json:"restart_cmd,omitempty"`    // argv for relaunch; empty = no restart
	LogPath       string    `json:"log_path"`                 // shared update log
	InstallerPath string    `json:"installer_path,omitempty"` // platform installer to run instead of file copy
	Cleanup       bool      `json:"cleanup"`                  // remove staging_root when done
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the fields the helper cannot proceed without.
func (m *Manifest) Validate() error {
	if m.StagingRoot == "" {
		return fmt.Errorf("manifest missing staging_root")
	}
	if m.InstallerPath == "" {
		if m.PayloadRoot == "" {
			return fmt.Errorf("manifest missing payload_root")
		}
		if m.TargetRoot == "" {
			return fmt.Errorf("manifest missing target_root")
		}
	}
	if m.Restart && len(m.RestartCmd) == 0 {
		return fmt.Errorf("manifest requests restart without restart_cmd")
	}
	return nil
}

// WriteManifest serializes m to path. The file is written in one shot;
// the helper only ever reads it after this process has finished it.
func WriteManifest(path string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
