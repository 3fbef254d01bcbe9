//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

type linuxProvider struct{}

func current() Provider { return linuxProvider{} } //nolint:ireturn // see Current

func (linuxProvider) Name() string              { return "Linux" }
func (linuxProvider) SupportsDirectIO() bool    { return true }
func (linuxProvider) SupportsDeviceQuery() bool { return true }

func (linuxProvider) OpenFlags(direct, sync bool) int {
	var flags int
	if direct {
		flags |= unix.O_DIRECT
	}
	if sync {
		flags |= unix.O_SYNC
	}
	return flags
}

func (linuxProvider) SetDirect(f *os.File, on bool) error {
	return setStatusFlag(f, unix.O_DIRECT, on)
}

// DeviceBlockSize prefers the physical sector size and falls back to the
// logical one for drivers that do not report BLKPBSZGET.
//
//nolint:gosec // G115: fd values are small non-negative integers
func (linuxProvider) DeviceBlockSize(f *os.File) (int64, bool) {
	if !isBlockDevice(f) {
		return 0, false
	}
	fd := int(f.Fd())
	if n, err := unix.IoctlGetUint32(fd, unix.BLKPBSZGET); err == nil && n > 0 {
		return int64(n), true
	}
	if n, err := unix.IoctlGetInt(fd, unix.BLKSSZGET); err == nil && n > 0 {
		return int64(n), true
	}
	return 0, false
}

//nolint:gosec // G115: fd values are small non-negative integers
func (linuxProvider) DataSync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
