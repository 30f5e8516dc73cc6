package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent   = "Tomato-Novel-Downloader"
	acceptJSON  = "application/vnd.github.v3+json"
	httpTimeout = 30 * time.Second
)

// HTTPDoer abstracts the HTTP client for testability.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FeedClient fetches releases from a GitHub-style release feed.
type FeedClient struct {
	http    HTTPDoer
	baseURL string // e.g. https://api.github.com/repos/owner/repo/releases
	token   string
}

// NewFeedClient creates a client for baseURL. token may be empty; when
// set it is sent as a bearer token to lift API rate limits. A nil doer
// gets a default client with a 30s timeout.
func NewFeedClient(doer HTTPDoer, baseURL, token string) *FeedClient {
	if doer == nil {
		doer = &http.Client{Timeout: httpTimeout}
	}
	return &FeedClient{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Latest returns the newest published release. With includePrerelease
// false the /latest endpoint is used (GitHub already excludes drafts
// and prereleases there); otherwise the release list is scanned for
// the first non-draft entry.
func (c *FeedClient) Latest(ctx context.Context, includePrerelease bool) (*ReleaseInfo, error) {
	if !includePrerelease {
		var release Release
		if err := c.fetch(ctx, c.baseURL+"/latest", &release); err != nil {
			return nil, err
		}
		return newReleaseInfo(&release), nil
	}

	var releases []Release
	if err := c.fetch(ctx, c.baseURL+"?per_page=20", &releases); err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Draft {
			continue
		}
		return newReleaseInfo(&releases[i]), nil
	}
	return nil, fmt.Errorf("no published releases found")
}

// ByTag returns the release for a specific tag. The "v" prefix is added
// when missing, matching the project's tagging convention.
func (c *FeedClient) ByTag(ctx context.Context, tag string) (*ReleaseInfo, error) {
	if !strings.HasPrefix(tag, "v") && !IsTimestampVersion(tag) {
		tag = "v" + tag
	}
	var release Release
	if err := c.fetch(ctx, c.baseURL+"/tags/"+tag, &release); err != nil {
		return nil, err
	}
	return newReleaseInfo(&release), nil
}

func (c *FeedClient) fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch release feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no release found at %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release feed error: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse release feed: %w", err)
	}
	return nil
}

// newReleaseInfo normalizes a raw feed entry: version without tag
// prefix, checksums parsed out of the body.
func newReleaseInfo(r *Release) *ReleaseInfo {
	return &ReleaseInfo{
		Version:     strings.TrimPrefix(r.TagName, "v"),
		Title:       r.Name,
		Body:        r.Body,
		Prerelease:  r.Prerelease,
		PublishedAt: r.PublishedAt,
		HTMLURL:     r.HTMLURL,
		Assets:      r.Assets,
		Checksums:   ParseChecksums(r.Body),
	}
}
