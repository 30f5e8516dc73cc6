package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckerCachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(Release{TagName: "v2.0.0"})
	}))
	defer srv.Close()

	checker := NewChecker(NewFeedClient(srv.Client(), srv.URL, ""), "1.0.0", time.Hour)

	for i := 0; i < 3; i++ {
		if info := checker.Check(context.Background(), false, false); info == nil || info.Version != "2.0.0" {
			t.Fatalf("check %d: got %+v", i, info)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("feed hit %d times, want 1", got)
	}

	// Force bypasses the cache.
	checker.Check(context.Background(), false, true)
	if got := hits.Load(); got != 2 {
		t.Errorf("feed hit %d times after force, want 2", got)
	}
}

func TestCheckerUpToDateReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Release{TagName: "v1.0.0"})
	}))
	defer srv.Close()

	checker := NewChecker(NewFeedClient(srv.Client(), srv.URL, ""), "1.0.0", time.Hour)
	if info := checker.Check(context.Background(), false, false); info != nil {
		t.Errorf("expected nil for up-to-date, got %+v", info)
	}
	// The comparison outcome is still available for explicit checks.
	result := checker.CheckResult(context.Background(), false, false)
	if result == nil || result.UpdateAvailable {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestCheckerSwallowsFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	checker := NewChecker(NewFeedClient(srv.Client(), srv.URL, ""), "1.0.0", time.Hour)
	if info := checker.Check(context.Background(), false, false); info != nil {
		t.Errorf("expected nil on feed failure, got %+v", info)
	}
	// A failed probe is not cached as an answer.
	if result := checker.CheckResult(context.Background(), false, false); result != nil {
		t.Errorf("failure should not be cached, got %+v", result)
	}
}
