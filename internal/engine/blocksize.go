package engine

import (
	"log/slog"

	"github.com/bamsammich/pdd/internal/platform"
)

// ResolveBlockSize returns the block size for a transfer. An explicit block
// size always wins; otherwise the input device's sector size is used when it
// can be discovered, and DefaultBlockSize when it cannot (regular files,
// pipes, stdin, failed queries).
func ResolveBlockSize(cfg Config, in *Stream) int64 {
	if cfg.BlockSize != AutoBlockSize {
		return cfg.BlockSize
	}
	if n, ok := cfg.provider().DeviceBlockSize(in.File()); ok && n > 0 {
		bs := clampBlockSize(n)
		slog.Debug("block size from device", "path", in.Path(), "device", n, "block_size", bs)
		return bs
	}
	return platform.DefaultBlockSize
}

func clampBlockSize(n int64) int64 {
	return min(max(n, platform.MinBlockSize), platform.MaxBlockSize)
}
