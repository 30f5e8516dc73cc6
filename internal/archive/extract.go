// Package archive extracts release artifacts into a staging directory.
// Supported containers: zip, tar.gz/tgz, tar.xz, and tar.lz4. Extraction
// guards against path traversal and absolute symlink targets.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Kind classifies an update artifact by its name.
type Kind int

const (
	KindUnknown Kind = iota
	KindDir
	KindZip
	KindTarGz
	KindTarXz
	KindTarLz4
	KindFile // loose file: bare binary, AppImage, installer executable
)

// Detect classifies path. Directories are detected by stat; everything
// else by extension, with unrecognized extensions treated as loose files.
func Detect(path string) Kind {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return KindDir
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return KindZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return KindTarXz
	case strings.HasSuffix(lower, ".tar.lz4"):
		return KindTarLz4
	default:
		return KindFile
	}
}

// Extract unpacks the archive at archivePath into destDir, which must
// already exist. Returns an error for loose files and directories.
func Extract(archivePath, destDir string) error {
	switch Detect(archivePath) {
	case KindZip:
		return extractZip(archivePath, destDir)
	case KindTarGz, KindTarXz, KindTarLz4:
		return extractTar(archivePath, destDir)
	default:
		return fmt.Errorf("not an extractable archive: %s", archivePath)
	}
}

// UnwrapSingleDir returns the effective payload root inside dir: when
// extraction yielded exactly one top-level directory (release archives
// often wrap content in a version-named folder), that directory is the
// root; otherwise dir itself is.
func UnwrapSingleDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeTarget(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode().Perm()|0o700); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s in zip: %w", f.Name, err)
		}
		err = writeFile(target, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractTar(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var decoded io.Reader
	switch Detect(archivePath) {
	case KindTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		decoded = gz
	case KindTarXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("xz reader: %w", err)
		}
		decoded = xr
	case KindTarLz4:
		decoded = lz4.NewReader(f)
	default:
		return fmt.Errorf("unsupported tar container: %s", archivePath)
	}

	tr := tar.NewReader(decoded)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeTarget(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()|0o700); err != nil {
				return fmt.Errorf("create dir %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return fmt.Errorf("extract %s: %w", header.Name, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("absolute symlink not allowed: %s -> %s", header.Name, header.Linkname)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", header.Name, err)
			}
		default:
			// Skip other types (devices, fifos, hard links).
			continue
		}
	}
	return nil
}

// safeTarget joins name under destDir and rejects entries that would
// escape it.
func safeTarget(destDir, name string) (string, error) {
	clean := filepath.Clean(name)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid path in archive: %s", name)
	}
	target := filepath.Join(destDir, clean)
	if target != filepath.Clean(destDir) && !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path traversal detected: %s", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
