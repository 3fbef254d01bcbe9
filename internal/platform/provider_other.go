//go:build !linux && !darwin && !freebsd

package platform

import (
	"errors"
	"os"
)

// genericProvider is the conservative POSIX fallback: buffered I/O only and
// no device geometry queries.
type genericProvider struct{}

func current() Provider { return genericProvider{} } //nolint:ireturn // see Current

func (genericProvider) Name() string              { return "POSIX compatible" }
func (genericProvider) SupportsDirectIO() bool    { return false }
func (genericProvider) SupportsDeviceQuery() bool { return false }

func (genericProvider) OpenFlags(_, sync bool) int {
	if sync {
		return os.O_SYNC
	}
	return 0
}

func (genericProvider) SetDirect(*os.File, bool) error { return errors.ErrUnsupported }

func (genericProvider) DeviceBlockSize(*os.File) (int64, bool) { return 0, false }

func (genericProvider) DataSync(f *os.File) error { return f.Sync() }
