package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const cacheFileName = ".update-check"

// CacheEntry stores the last update check result, persisted so the
// background check in the CLI pre-run does not hit the feed every
// invocation.
type CacheEntry struct {
	CheckedAt       time.Time `json:"checked_at"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
}

// CachePath returns the cache file location under homeDir.
func CachePath(homeDir string) string {
	return filepath.Join(homeDir, cacheFileName)
}

// LoadCache loads the cached update check result.
func LoadCache(homeDir string) (*CacheEntry, error) {
	data, err := os.ReadFile(CachePath(homeDir))
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache saves the update check result.
func SaveCache(homeDir string, entry *CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(CachePath(homeDir), data, 0o644)
}

// IsCacheValid reports whether entry is fresh within ttl.
func IsCacheValid(entry *CacheEntry, ttl time.Duration) bool {
	return entry != nil && time.Since(entry.CheckedAt) < ttl
}
