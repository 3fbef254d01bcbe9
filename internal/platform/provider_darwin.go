//go:build darwin

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// dkiocgetblocksize is DKIOCGETBLOCKSIZE from <sys/disk.h>.
const dkiocgetblocksize = 0x40046418

// darwinProvider has no O_DIRECT; the page cache is bypassed per descriptor
// with F_NOCACHE instead.
type darwinProvider struct{}

func current() Provider { return darwinProvider{} } //nolint:ireturn // see Current

func (darwinProvider) Name() string              { return "macOS" }
func (darwinProvider) SupportsDirectIO() bool    { return true }
func (darwinProvider) SupportsDeviceQuery() bool { return true }

func (darwinProvider) OpenFlags(_, sync bool) int {
	if sync {
		return unix.O_SYNC
	}
	return 0
}

//nolint:gosec // G115: fd values are small non-negative integers
func (darwinProvider) SetDirect(f *os.File, on bool) error {
	arg := 0
	if on {
		arg = 1
	}
	_, err := unix.FcntlInt(f.Fd(), unix.F_NOCACHE, arg)
	return err
}

//nolint:gosec // G115: fd values are small non-negative integers
func (darwinProvider) DeviceBlockSize(f *os.File) (int64, bool) {
	if !isBlockDevice(f) {
		return 0, false
	}
	n, err := unix.IoctlGetUint32(int(f.Fd()), dkiocgetblocksize)
	if err != nil || n == 0 {
		return 0, false
	}
	return int64(n), true
}

func (darwinProvider) DataSync(f *os.File) error {
	return f.Sync()
}
