package platform

import (
	"log/slog"
	"os"
)

// ProbeDirectIO reports whether direct I/O actually works on the filesystem
// holding dir by writing size bytes from an aligned buffer to a throwaway
// file there. Some filesystems (tmpfs, many FUSE and network mounts) accept
// the flag at open time and then reject every write, and most reject
// transfers that are not a multiple of the sector size. A non-positive size
// probes with one aligned block.
func ProbeDirectIO(p Provider, dir string, size int64) bool {
	if !p.SupportsDirectIO() {
		return false
	}
	if size <= 0 {
		size = MinAlignment
	}

	buf, err := Allocate(int(size))
	if err != nil {
		return false
	}
	defer buf.Release() //nolint:errcheck // probe buffer

	tmp, err := os.CreateTemp(dir, ".pdd-direct-*")
	if err != nil {
		slog.Debug("direct I/O probe: create temp file", "dir", dir, "error", err)
		return false
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	f, err := os.OpenFile(name, os.O_WRONLY|p.OpenFlags(true, false), 0)
	if err != nil {
		slog.Debug("direct I/O probe: open", "path", name, "error", err)
		return false
	}
	defer f.Close()

	if err := p.SetDirect(f, true); err != nil {
		slog.Debug("direct I/O probe: enable", "path", name, "error", err)
		return false
	}

	n, err := f.Write(buf.Bytes()[:size])
	if err != nil || int64(n) != size {
		slog.Debug("direct I/O probe: write", "path", name, "error", err)
		return false
	}
	return true
}
