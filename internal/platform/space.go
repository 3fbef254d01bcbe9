package platform

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. ok is false when usage cannot be read.
func FreeSpace(path string) (free uint64, ok bool) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, false
	}
	return u.Free, true
}
