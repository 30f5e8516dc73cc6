package update

import (
	"testing"
	"time"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entry := &CacheEntry{
		CheckedAt:       time.Now().Add(-time.Minute),
		LatestVersion:   "1.3.0",
		UpdateAvailable: true,
	}
	if err := SaveCache(dir, entry); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	got, err := LoadCache(dir)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got.LatestVersion != "1.3.0" || !got.UpdateAvailable {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !IsCacheValid(got, 15*time.Minute) {
		t.Error("one-minute-old entry should be valid at 15m TTL")
	}
	if IsCacheValid(got, 30*time.Second) {
		t.Error("one-minute-old entry should be stale at 30s TTL")
	}
}

func TestLoadCacheMissing(t *testing.T) {
	if _, err := LoadCache(t.TempDir()); err == nil {
		t.Error("expected error for missing cache file")
	}
}

func TestIsCacheValidNil(t *testing.T) {
	if IsCacheValid(nil, time.Hour) {
		t.Error("nil entry is never valid")
	}
}
