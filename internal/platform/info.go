package platform

import (
	"fmt"
	"io"

	"github.com/shirou/gopsutil/v3/host"
)

// Info summarizes what a Provider can do, for the platform report.
type Info struct {
	Platform         string
	DirectIO         bool
	DeviceQuery      bool
	DefaultBlockSize int64
	MaxBlockSize     int64
	BufferAlignment  int
	OS               string
	OSVersion        string
	KernelVersion    string
	KernelArch       string
}

// Describe collects the capability report for p. Host details are best
// effort and left empty when they cannot be read.
func Describe(p Provider) Info {
	info := Info{
		Platform:         p.Name(),
		DirectIO:         p.SupportsDirectIO(),
		DeviceQuery:      p.SupportsDeviceQuery(),
		DefaultBlockSize: DefaultBlockSize,
		MaxBlockSize:     MaxBlockSize,
		BufferAlignment:  Alignment(),
	}
	if h, err := host.Info(); err == nil {
		info.OS = h.Platform
		info.OSVersion = h.PlatformVersion
		info.KernelVersion = h.KernelVersion
		info.KernelArch = h.KernelArch
	}
	return info
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Write prints the report in the pdd platform format.
func (i Info) Write(w io.Writer) {
	fmt.Fprintln(w, "pdd - POSIX platform capabilities:")
	fmt.Fprintf(w, "Platform: %s\n", i.Platform)
	if i.OS != "" {
		fmt.Fprintf(w, "Host: %s %s (kernel %s, %s)\n", i.OS, i.OSVersion, i.KernelVersion, i.KernelArch)
	}
	fmt.Fprintf(w, "Direct I/O support: %s\n", yesNo(i.DirectIO))
	fmt.Fprintf(w, "Block device size detection: %s\n", yesNo(i.DeviceQuery))
	fmt.Fprintf(w, "Buffer alignment: %d bytes\n", i.BufferAlignment)
	fmt.Fprintf(w, "Default block size: %d bytes\n", i.DefaultBlockSize)
	fmt.Fprintf(w, "Maximum block size: %d bytes\n", i.MaxBlockSize)
	fmt.Fprintln(w)
}
