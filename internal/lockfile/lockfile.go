// Package lockfile serializes update attempts system-wide via an OS
// advisory lock on a well-known file. The lock content is diagnostic
// only: the holder's PID is written in for a human reading the temp dir,
// but the kernel lock is what is authoritative.
package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 100 * time.Millisecond

// DefaultPath returns the well-known lock location in the system temp
// directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "noveldl-update.lock")
}

// Lock is a cross-process advisory mutual-exclusion lock. The zero value
// is unusable; construct with New.
type Lock struct {
	path string

	mu   sync.Mutex
	fl   *flock.Flock
	held bool
}

// New returns a lock bound to path, or to the default path when empty.
func New(path string) *Lock {
	if path == "" {
		path = DefaultPath()
	}
	return &Lock{path: path, fl: flock.New(path)}
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Acquire attempts to take the exclusive lock, retrying with a short
// delay until timeout elapses. Returns false on exhaustion; the caller
// treats that as contention, not corruption.
func (l *Lock) Acquire(timeout time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ok, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil || !ok {
		return false
	}
	l.held = true

	// PID inside the file is diagnostic only.
	_ = os.WriteFile(l.path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
	return true
}

// Release unlocks and forgets the handle. Releasing an unheld lock is a
// no-op.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.held {
		return
	}
	_ = l.fl.Unlock()
	l.held = false
}

// Held reports whether this instance currently holds the lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// IsLocked probes whether any process currently holds the lock, using a
// fresh handle so an already-held lock owned by this instance is not
// disturbed.
func (l *Lock) IsLocked() bool {
	l.mu.Lock()
	if l.held {
		l.mu.Unlock()
		return true
	}
	l.mu.Unlock()

	probe := flock.New(l.path)
	ok, err := probe.TryLock()
	if err != nil {
		// Can't tell; err on the side of contention.
		return true
	}
	if !ok {
		return true
	}
	_ = probe.Unlock()
	return false
}
