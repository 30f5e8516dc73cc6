// Package download implements a range-segmented HTTP downloader with a
// single-stream fallback. Artifacts are fetched into place and the final
// size checked against the server-declared total; a failed attempt never
// leaves a destination file or orphaned part files behind.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

const (
	minSegments = 2
	maxSegments = 8
	copyChunk   = 64 * 1024
)

// ProgressFunc is called as bytes arrive with the running total and the
// declared size (-1 when unknown). It may be called from multiple
// goroutines, serialized by the downloader.
type ProgressFunc func(downloaded, total int64)

// HTTPDoer interface for HTTP requests (allows mocking in tests).
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Downloader fetches URLs to local files.
type Downloader struct {
	http     HTTPDoer
	segments int
}

// New creates a downloader with the default HTTP client. segments <= 0
// derives the count from available parallelism; the value is clamped to
// a small bound either way, to avoid hammering the remote server.
func New(segments int) *Downloader {
	return NewWith(nil, segments)
}

// NewWith creates a downloader with a custom HTTP client (for testing).
func NewWith(h HTTPDoer, segments int) *Downloader {
	if h == nil {
		h = &http.Client{
			Timeout: 0, // no overall timeout for large artifacts
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		}
	}
	if segments <= 0 {
		segments = runtime.NumCPU()
	}
	if segments < minSegments {
		segments = minSegments
	}
	if segments > maxSegments {
		segments = maxSegments
	}
	return &Downloader{http: h, segments: segments}
}

// errRangeIgnored signals that a server advertised range support but
// answered a ranged request with the full body.
var errRangeIgnored = errors.New("server ignored range request")

// Download fetches url into destPath, splitting into concurrent byte-range
// requests when the server advertises range support and a known size,
// otherwise streaming a single GET. headers are attached to every request.
func (d *Downloader) Download(ctx context.Context, url, destPath string, headers map[string]string, progress ProgressFunc) error {
	total, ranged := d.probeRangeSupport(ctx, url, headers)
	if !ranged || total <= 0 {
		return d.single(ctx, url, destPath, headers, total, progress)
	}
	err := d.segmented(ctx, url, destPath, headers, total, progress)
	if errors.Is(err, errRangeIgnored) {
		return d.single(ctx, url, destPath, headers, total, progress)
	}
	return err
}

// probeRangeSupport issues a HEAD request, falling back to a GET whose
// body is closed immediately when HEAD fails. Range mode requires both a
// declared size and an Accept-Ranges: bytes signal.
func (d *Downloader) probeRangeSupport(ctx context.Context, url string, headers map[string]string) (int64, bool) {
	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return -1, false
		}
		applyHeaders(req, headers)
		resp, err := d.http.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			continue
		}
		ranged := strings.Contains(strings.ToLower(resp.Header.Get("Accept-Ranges")), "bytes")
		return resp.ContentLength, ranged && resp.ContentLength > 0
	}
	return -1, false
}

func (d *Downloader) single(ctx context.Context, url, destPath string, headers map[string]string, total int64, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	applyHeaders(req, headers)
	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}
	if total <= 0 {
		total = resp.ContentLength
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	track := newTracker(total, progress)
	if err := copyChunks(ctx, out, resp.Body, track); err != nil {
		out.Close()
		os.Remove(destPath)
		return err
	}
	return out.Close()
}

func (d *Downloader) segmented(ctx context.Context, url, destPath string, headers map[string]string, total int64, progress ProgressFunc) error {
	segments := d.segments
	if int64(segments) > total {
		segments = int(total)
		if segments < 1 {
			segments = 1
		}
	}

	// Contiguous partitions of [0, total); the last one absorbs the
	// remainder.
	partSize := total / int64(segments)
	type span struct{ start, end int64 } // inclusive byte range
	spans := make([]span, segments)
	for i := 0; i < segments; i++ {
		start := int64(i) * partSize
		end := start + partSize - 1
		if i == segments-1 {
			end = total - 1
		}
		spans[i] = span{start, end}
	}

	// Part names carry a digest of the URL so two concurrent downloads
	// of same-named assets from different releases cannot collide.
	tag := xxhash.Sum64String(url)
	partPath := func(i int) string {
		return fmt.Sprintf("%s.%016x.part%d", destPath, tag, i)
	}

	track := newTracker(total, progress)
	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range spans {
		i, sp := i, sp
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			applyHeaders(req, headers)
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", sp.start, sp.end))

			resp, err := d.http.Do(req)
			if err != nil {
				return fmt.Errorf("segment %d: %w", i, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				// The server ignored the Range header despite
				// advertising support; every worker would fetch the
				// full body. Bail out so Download retries single-stream.
				return errRangeIgnored
			}
			if resp.StatusCode != http.StatusPartialContent {
				return fmt.Errorf("segment %d: HTTP %d", i, resp.StatusCode)
			}

			out, err := os.Create(partPath(i))
			if err != nil {
				return err
			}
			if err := copyChunks(gctx, out, resp.Body, track); err != nil {
				out.Close()
				os.Remove(partPath(i))
				return fmt.Errorf("segment %d: %w", i, err)
			}
			return out.Close()
		})
	}

	removeParts := func() {
		for i := range spans {
			os.Remove(partPath(i))
		}
	}
	if err := g.Wait(); err != nil {
		removeParts()
		return err
	}

	if err := concat(destPath, segments, partPath); err != nil {
		removeParts()
		os.Remove(destPath)
		return err
	}
	removeParts()

	info, err := os.Stat(destPath)
	if err != nil {
		return err
	}
	if info.Size() != total {
		os.Remove(destPath)
		return fmt.Errorf("reassembled size %d does not match expected %d", info.Size(), total)
	}
	return nil
}

// concat stitches part files into destPath in index order.
func concat(destPath string, segments int, partPath func(int) string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	for i := 0; i < segments; i++ {
		p, err := os.Open(partPath(i))
		if err != nil {
			return err
		}
		_, err = io.Copy(out, p)
		p.Close()
		if err != nil {
			return err
		}
	}
	return out.Close()
}

// copyChunks copies r to w in fixed-size chunks, checking for
// cancellation between chunks so in-flight workers stop promptly.
func copyChunks(ctx context.Context, w io.Writer, r io.Reader, track *tracker) error {
	buf := make([]byte, copyChunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			track.add(int64(n))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// tracker serializes progress callbacks across segment workers.
type tracker struct {
	mu       sync.Mutex
	total    int64
	done     int64
	progress ProgressFunc
}

func newTracker(total int64, progress ProgressFunc) *tracker {
	return &tracker{total: total, progress: progress}
}

func (t *tracker) add(n int64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done += n
	if t.progress != nil {
		// Invoked under the mutex: callers rely on callbacks never
		// overlapping and may touch unsynchronized state.
		t.progress(t.done, t.total)
	}
}
