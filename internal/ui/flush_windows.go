//go:build windows

package ui

import "time"

// FlushStdinWithTimeout is a no-op on Windows: the console API does not
// inject escape responses into stdin the way unix terminals do.
func FlushStdinWithTimeout(timeout time.Duration) {}
