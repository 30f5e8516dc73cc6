package update

import (
	"context"
	"sync"
	"time"
)

const defaultCheckTTL = 15 * time.Minute

// Checker answers "is a newer build available" against the release
// feed, caching the last answer in memory so repeated calls within the
// TTL cost nothing. Check deliberately swallows feed errors: a failed
// probe means "no update known", never a surfaced failure.
type Checker struct {
	feed           *FeedClient
	currentVersion string
	ttl            time.Duration

	mu        sync.Mutex
	checkedAt time.Time
	last      *CheckResult
}

// NewChecker creates a checker for currentVersion. ttl <= 0 selects the
// default 15 minutes.
func NewChecker(feed *FeedClient, currentVersion string, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = defaultCheckTTL
	}
	return &Checker{feed: feed, currentVersion: currentVersion, ttl: ttl}
}

// Check returns the latest release when it is newer than the current
// version, or nil when up to date, when the cached answer is still
// fresh and negative, or when the feed cannot be reached. force
// bypasses the cache.
func (c *Checker) Check(ctx context.Context, includePrerelease, force bool) *ReleaseInfo {
	result := c.CheckResult(ctx, includePrerelease, force)
	if result == nil || !result.UpdateAvailable {
		return nil
	}
	return result.Release
}

// CheckResult is Check with the full comparison outcome, for callers
// that present "already up to date" differently from "check failed".
// A nil return means the feed probe failed.
func (c *Checker) CheckResult(ctx context.Context, includePrerelease, force bool) *CheckResult {
	if cached := c.cached(force); cached != nil {
		return cached
	}
	info, err := c.feed.Latest(ctx, includePrerelease)
	if err != nil {
		return nil
	}
	return c.store(info)
}

// Latest returns the newest release from the feed, serving the cached
// answer within the TTL. Unlike Check it surfaces feed errors, for
// callers acting on an explicit user request. force bypasses the
// cache.
func (c *Checker) Latest(ctx context.Context, includePrerelease, force bool) (*ReleaseInfo, error) {
	if cached := c.cached(force); cached != nil {
		return cached.Release, nil
	}
	info, err := c.feed.Latest(ctx, includePrerelease)
	if err != nil {
		return nil, err
	}
	c.store(info)
	return info, nil
}

func (c *Checker) cached(force bool) *CheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !force && c.last != nil && time.Since(c.checkedAt) < c.ttl {
		return c.last
	}
	return nil
}

func (c *Checker) store(info *ReleaseInfo) *CheckResult {
	result := &CheckResult{
		CurrentVersion:  c.currentVersion,
		LatestVersion:   info.Version,
		UpdateAvailable: IsNewer(c.currentVersion, info.Version),
		Release:         info,
	}
	c.mu.Lock()
	c.last = result
	c.checkedAt = time.Now()
	c.mu.Unlock()
	return result
}
