// Package sysinfo reports local disk usage for preflight checks before
// large downloads and installs.
package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// Disk describes usage of the filesystem containing a path.
type Disk struct {
	Total uint64
	Used  uint64
	Free  uint64
}

// DiskUsage returns usage for the filesystem containing path.
func DiskUsage(path string) (Disk, error) {
	du, err := disk.Usage(path)
	if err != nil {
		return Disk{}, fmt.Errorf("disk usage for %s: %w", path, err)
	}
	return Disk{Total: du.Total, Used: du.Used, Free: du.Free}, nil
}

// EnsureFree returns an error when the filesystem containing path has
// fewer than need bytes available. need == 0 always passes.
func EnsureFree(path string, need uint64) error {
	if need == 0 {
		return nil
	}
	d, err := DiskUsage(path)
	if err != nil {
		// Unknown filesystems (bind mounts, exotic tmpfs setups) should
		// not block an update; the write itself will fail if space runs out.
		return nil
	}
	if d.Free < need {
		return fmt.Errorf("not enough disk space on %s: need %d bytes, have %d", path, need, d.Free)
	}
	return nil
}
