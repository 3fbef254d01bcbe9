//go:build freebsd

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// diocgsectorsize is DIOCGSECTORSIZE from <sys/disk.h>: _IOR('d', 128, u_int).
const diocgsectorsize = 0x40046480

type bsdProvider struct{}

func current() Provider { return bsdProvider{} } //nolint:ireturn // see Current

func (bsdProvider) Name() string              { return "FreeBSD" }
func (bsdProvider) SupportsDirectIO() bool    { return true }
func (bsdProvider) SupportsDeviceQuery() bool { return true }

func (bsdProvider) OpenFlags(direct, sync bool) int {
	var flags int
	if direct {
		flags |= unix.O_DIRECT
	}
	if sync {
		flags |= unix.O_SYNC
	}
	return flags
}

func (bsdProvider) SetDirect(f *os.File, on bool) error {
	return setStatusFlag(f, unix.O_DIRECT, on)
}

//nolint:gosec // G115: fd values are small non-negative integers
func (bsdProvider) DeviceBlockSize(f *os.File) (int64, bool) {
	if !isBlockDevice(f) {
		return 0, false
	}
	n, err := unix.IoctlGetUint32(int(f.Fd()), diocgsectorsize)
	if err != nil || n == 0 {
		return 0, false
	}
	return int64(n), true
}

func (bsdProvider) DataSync(f *os.File) error {
	return f.Sync()
}
