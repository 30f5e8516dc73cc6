package update

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomato-novel/noveldl/internal/archive"
)

// Staged describes a downloaded artifact prepared for the install
// helper. Exactly one of PayloadRoot or InstallerPath is meaningful:
// archives and loose binaries stage a payload tree, platform installer
// executables are run as-is.
type Staged struct {
	Root          string // staging dir; helper removes it when cleanup is set
	PayloadRoot   string
	InstallerPath string
}

// StageArtifact prepares artifactPath under a fresh staging directory
// inside stagingParent. The running executable's basename (execName)
// is used to name a loose binary payload so the helper's file copy
// lands on the right target.
func StageArtifact(artifactPath, stagingParent, execName string) (*Staged, error) {
	root, err := os.MkdirTemp(stagingParent, "noveldl-stage-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	staged, err := stageInto(artifactPath, root, execName)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}
	staged.Root = root
	return staged, nil
}

func stageInto(artifactPath, root, execName string) (*Staged, error) {
	switch archive.Detect(artifactPath) {
	case archive.KindZip, archive.KindTarGz, archive.KindTarXz, archive.KindTarLz4:
		payload := filepath.Join(root, "payload")
		if err := os.MkdirAll(payload, 0o755); err != nil {
			return nil, err
		}
		if err := archive.Extract(artifactPath, payload); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", filepath.Base(artifactPath), err)
		}
		payloadRoot, err := archive.UnwrapSingleDir(payload)
		if err != nil {
			return nil, err
		}
		return &Staged{PayloadRoot: payloadRoot}, nil

	case archive.KindDir:
		// Already-unpacked artifact (e.g. a macOS .app bundle). Copy it
		// into staging so the install survives the source going away.
		payload := filepath.Join(root, "payload")
		if err := copyDir(artifactPath, payload); err != nil {
			return nil, fmt.Errorf("failed to stage directory: %w", err)
		}
		payloadRoot, err := archive.UnwrapSingleDir(payload)
		if err != nil {
			return nil, err
		}
		return &Staged{PayloadRoot: payloadRoot}, nil

	case archive.KindFile:
		lower := strings.ToLower(artifactPath)
		if strings.HasSuffix(lower, ".exe") || strings.HasSuffix(lower, ".msi") {
			// Windows installer: moved into staging and invoked by the
			// helper instead of copied file by file.
			installer := filepath.Join(root, filepath.Base(artifactPath))
			if err := moveFile(artifactPath, installer); err != nil {
				return nil, fmt.Errorf("failed to stage installer: %w", err)
			}
			return &Staged{InstallerPath: installer}, nil
		}

		// Loose binary (bare executable or AppImage): stage it under the
		// running executable's name so the copy replaces it in place.
		payload := filepath.Join(root, "payload")
		if err := os.MkdirAll(payload, 0o755); err != nil {
			return nil, err
		}
		dest := filepath.Join(payload, execName)
		if err := moveFile(artifactPath, dest); err != nil {
			return nil, fmt.Errorf("failed to stage binary: %w", err)
		}
		if err := os.Chmod(dest, 0o755); err != nil {
			return nil, err
		}
		return &Staged{PayloadRoot: payload}, nil

	default:
		return nil, fmt.Errorf("cannot stage %s", artifactPath)
	}
}

// copyDir mirrors a directory tree, preserving file permissions and
// skipping irregular entries.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
}

// moveFile renames src to dst, falling back to copy+remove across
// filesystems (downloads land in the system temp dir, which may be a
// different mount than the staging parent).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
