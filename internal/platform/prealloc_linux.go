//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// Preallocate reserves disk space for [offset, offset+length) so a long
// sequential write does not fragment. Space before offset is left alone, which
// keeps seek gaps sparse. Errors are ignored as fallocate is not supported on
// all filesystems.
//
//nolint:gosec // G115: fd values are small non-negative integers
func Preallocate(fd *os.File, offset, length int64) {
	if length <= 0 {
		return
	}
	//nolint:errcheck // fallocate is advisory; not supported on all filesystems
	unix.Fallocate(int(fd.Fd()), unix.FALLOC_FL_KEEP_SIZE, offset, length)
}
