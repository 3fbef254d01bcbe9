package engine

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/stats"
)

// StdStream is the path that binds to standard input or output.
const StdStream = "-"

// AutoBlockSize asks the engine to pick a block size from the input device.
const AutoBlockSize int64 = -1

// Monitor observes a running transfer. Start is called once the transfer
// begins moving data; Stop must perform a final render and return only after
// the monitor has fully stopped.
type Monitor interface {
	Start(r stats.Reader)
	Stop()
}

// Config describes one transfer. The transfer fields are immutable once
// validated; the collaborator fields at the end are optional.
type Config struct {
	Input     string
	Output    string
	BlockSize int64 // AutoBlockSize to resolve from the input device
	Count     int64 // blocks to copy, 0 for unbounded
	Skip      int64 // input blocks to skip
	Seek      int64 // output blocks to seek over
	Direct    bool  // bypass the page cache
	Sync      bool  // open the output with synchronous writes
	Fsync     bool  // flush to stable storage after every write

	Verify      bool  // hash source and destination ranges after the copy
	BWLimit     int64 // bytes/sec, 0 for unlimited
	Preallocate bool  // reserve space for the written range up front

	Provider platform.Provider // defaults to platform.Current()
	Stats    *stats.Collector  // defaults to a fresh collector
	Monitor  Monitor           // optional progress observer
	Stdin    *os.File          // defaults to os.Stdin
	Stdout   *os.File          // defaults to os.Stdout
}

// Validate checks the configuration before any I/O. Problems that only
// degrade behavior are returned as warnings.
func (c Config) Validate() ([]string, error) {
	var warnings []string

	if c.BlockSize == 0 {
		return nil, configError("block size cannot be zero")
	}
	if c.BlockSize != AutoBlockSize {
		if c.BlockSize < platform.MinBlockSize || c.BlockSize > platform.MaxBlockSize {
			return nil, configError("invalid block size: %d (must be between %d and %d bytes)",
				c.BlockSize, platform.MinBlockSize, platform.MaxBlockSize)
		}
		if err := checkOffsets(c, c.BlockSize); err != nil {
			return nil, err
		}
		if c.Direct && c.BlockSize%platform.SectorSize != 0 {
			warnings = append(warnings, fmt.Sprintf(
				"block size %d is not a multiple of %d for direct I/O", c.BlockSize, platform.SectorSize))
		}
	}
	if c.Count < 0 || c.Skip < 0 || c.Seek < 0 {
		return nil, configError("count, skip and seek must not be negative")
	}
	if c.BWLimit < 0 {
		return nil, configError("bandwidth limit must not be negative")
	}
	if c.Input == "" || c.Output == "" {
		return nil, configError("input and output must be set")
	}
	if c.Input != StdStream && c.Input == c.Output {
		return nil, configError("input and output files are the same")
	}
	if c.Input != StdStream && c.Output != StdStream && samePath(c.Input, c.Output) {
		return nil, configError("input and output files are the same")
	}
	return warnings, nil
}

// samePath reports whether two existing paths name the same file.
func samePath(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// checkOffsets rejects skip/seek/count values whose byte offsets overflow.
func checkOffsets(c Config, bs int64) error {
	limit := math.MaxInt64 / bs
	if c.Skip > limit || c.Seek > limit || c.Count > limit {
		return configError("skip, seek or count too large for block size %d", bs)
	}
	return nil
}

// Normalize downgrades Direct when it cannot be honored: the platform lacks
// support, the block size is not a multiple of the sector size, or a probe
// write of one block on the destination's filesystem fails. Each downgrade
// produces a warning.
func (c Config) Normalize() (Config, []string) {
	if !c.Direct {
		return c, nil
	}
	p := c.provider()
	if !p.SupportsDirectIO() {
		c.Direct = false
		return c, []string{"direct I/O is not supported on this platform, ignoring direct flag"}
	}
	if c.BlockSize > 0 && c.BlockSize%platform.SectorSize != 0 {
		c.Direct = false
		return c, []string{fmt.Sprintf(
			"block size %d is not a multiple of %d, falling back to buffered I/O",
			c.BlockSize, platform.SectorSize)}
	}
	dir := os.TempDir()
	if c.Output != StdStream {
		dir = filepath.Dir(c.Output)
	}
	if !platform.ProbeDirectIO(p, dir, c.BlockSize) {
		slog.Debug("direct I/O probe failed", "dir", dir)
		c.Direct = false
		return c, []string{
			"direct I/O was requested but does not work on the destination filesystem, falling back to buffered I/O",
		}
	}
	return c, nil
}

//nolint:ireturn // collaborator interface
func (c Config) provider() platform.Provider {
	if c.Provider != nil {
		return c.Provider
	}
	return platform.Current()
}
