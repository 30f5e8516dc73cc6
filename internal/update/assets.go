package update

import (
	"fmt"
	"strings"
)

// SelectAsset picks the artifact best matching goos/goarch from the
// release's assets. Candidates are scored on name keywords: OS and
// architecture tokens weigh most, per-platform packaging preferences
// break ties, debug builds are penalized. Checksum files never win.
// When nothing scores positive the first asset is returned so a feed
// with a single unlabeled artifact still works.
func SelectAsset(info *ReleaseInfo, goos, goarch string) (*Asset, error) {
	if info == nil || len(info.Assets) == 0 {
		return nil, fmt.Errorf("release %s has no assets", versionOf(info))
	}

	best := -1
	bestScore := 0
	for i := range info.Assets {
		score := scoreAsset(info.Assets[i].Name, goos, goarch)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return &info.Assets[0], nil
	}
	return &info.Assets[best], nil
}

func versionOf(info *ReleaseInfo) string {
	if info == nil {
		return "?"
	}
	return info.Version
}

var archTokens = map[string][]string{
	"amd64": {"amd64", "x86_64", "x64"},
	"arm64": {"arm64", "aarch64"},
	"386":   {"386", "i686", "x86"},
}

func scoreAsset(name, goos, goarch string) int {
	lower := strings.ToLower(name)

	// Never select companion files as the payload.
	for _, ext := range []string{".txt", ".sha256", ".asc", ".sig", ".json", ".yml", ".yaml", ".md"} {
		if strings.HasSuffix(lower, ext) {
			return 0
		}
	}

	score := 0
	switch goos {
	case "windows":
		if strings.Contains(lower, "win") {
			score += 4
		}
		if strings.HasSuffix(lower, ".exe") || strings.Contains(lower, "setup") || strings.Contains(lower, "installer") {
			score += 2
		}
		if strings.HasSuffix(lower, ".zip") {
			score++
		}
	case "darwin":
		if strings.Contains(lower, "mac") || strings.Contains(lower, "darwin") || strings.Contains(lower, "osx") {
			score += 4
		}
		if strings.HasSuffix(lower, ".dmg") {
			score += 2
		}
		if strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".tar.gz") {
			score++
		}
	default:
		if strings.Contains(lower, "linux") {
			score += 4
		}
		if strings.HasSuffix(lower, ".appimage") {
			score += 2
		}
		if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tar.xz") || strings.HasSuffix(lower, ".tar.lz4") {
			score++
		}
	}

	for _, token := range archTokens[goarch] {
		if strings.Contains(lower, token) {
			score += 3
			break
		}
	}

	if strings.Contains(lower, "debug") {
		score -= 3
	}
	return score
}
