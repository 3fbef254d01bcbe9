// Package platform isolates the OS-specific parts of a block copy: open flags,
// direct I/O, device geometry queries, data sync and aligned buffers.
//
// The engine never branches on the operating system. It asks the Provider
// returned by Current what the platform can do.
package platform

import (
	"os"
)

const (
	DefaultBlockSize int64 = 128 * 1024        // used when the device gives no hint
	MaxBlockSize     int64 = 128 * 1024 * 1024 // 128 MiB
	MinBlockSize     int64 = 512
	SectorSize       int64 = 512 // direct I/O transfers must be multiples of this
	MinAlignment           = 4096
)

// Provider exposes the capabilities of the running platform.
type Provider interface {
	// Name is a human-readable platform label.
	Name() string
	// SupportsDirectIO reports whether cache-bypassing I/O can be requested.
	SupportsDirectIO() bool
	// SupportsDeviceQuery reports whether DeviceBlockSize can ever succeed.
	SupportsDeviceQuery() bool
	// OpenFlags returns extra os.OpenFile flags for the requested modes.
	// Flags the platform cannot honor are left out.
	OpenFlags(direct, sync bool) int
	// SetDirect toggles direct I/O on an already open descriptor.
	SetDirect(f *os.File, on bool) error
	// DeviceBlockSize returns the sector size of a block device, or false when
	// f is not a block device or the query fails.
	DeviceBlockSize(f *os.File) (int64, bool)
	// DataSync flushes written data to stable storage.
	DataSync(f *os.File) error
}

// Current returns the Provider for the platform the binary was built for.
//
//nolint:ireturn // factory returns interface by design
func Current() Provider {
	return current()
}

// IsBlockDevice reports whether fi describes a block (not character) device.
func IsBlockDevice(fi os.FileInfo) bool {
	m := fi.Mode()
	return m&os.ModeDevice != 0 && m&os.ModeCharDevice == 0
}

func isBlockDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return IsBlockDevice(fi)
}
