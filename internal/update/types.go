package update

import "time"

// Release represents a GitHub release as returned by the releases API.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"` // Changelog/release notes with checksum lines
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
	Assets      []Asset   `json:"assets"`
}

// Asset represents a downloadable release artifact.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

// ReleaseInfo is a processed view of a Release: version normalized,
// checksums already parsed out of the release body.
type ReleaseInfo struct {
	Version     string
	Title       string
	Body        string
	Prerelease  bool
	PublishedAt time.Time
	HTMLURL     string
	Assets      []Asset
	Checksums   map[string]string // asset name -> lowercase hex sha256
}

// ChecksumFor returns the expected sha256 for name, or "" when the
// release body carried none for it.
func (r *ReleaseInfo) ChecksumFor(name string) string {
	if r == nil || r.Checksums == nil {
		return ""
	}
	return r.Checksums[name]
}

// CheckResult holds the outcome of an update check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	Release         *ReleaseInfo
}

// Options configures a single update run.
type Options struct {
	Force       bool   // Install even when the feed version is not newer
	Prerelease  bool   // Consider prerelease entries
	NoRestart   bool   // Do not relaunch the application after install
	SkipVerify  bool   // Skip checksum verification (not recommended)
	Version     string // Specific version to install (empty = latest)
	Segments    int    // Download segment count (0 = auto)
	LockTimeout time.Duration
}
