package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/stats"
)

func TestRunCopiesFile(t *testing.T) {
	cfg := testConfig(t, 1<<20)
	data := writeRandom(t, cfg.Input, 10<<20)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.False(t, res.Cancelled)
	assert.Equal(t, int64(10), res.Stats.Blocks)
	assert.Equal(t, int64(10<<20), res.Stats.Bytes)
	assert.Equal(t, int64(10<<20), res.Stats.BytesTotal)
	assert.Equal(t, int64(1<<20), res.BlockSize)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, got))
}

func TestRunBlockAccounting(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		bs     int64
		blocks int64
	}{
		{"empty input", 0, 512, 0},
		{"single byte", 1, 512, 1},
		{"exact block", 512, 512, 1},
		{"partial tail", 513, 512, 2},
		{"many blocks", 100000, 4096, 25},
		{"large block small tail", 1<<20 + 1, 64 << 10, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.bs)
			writeRandom(t, cfg.Input, tt.size)

			res := Run(context.Background(), cfg)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.blocks, res.Stats.Blocks)
			assert.Equal(t, int64(tt.size), res.Stats.Bytes)

			fi, err := os.Stat(cfg.Output)
			require.NoError(t, err)
			assert.Equal(t, int64(tt.size), fi.Size())
		})
	}
}

func TestRunCount(t *testing.T) {
	cfg := testConfig(t, 4096)
	data := writeRandom(t, cfg.Input, 10*4096)
	cfg.Count = 3

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(3), res.Stats.Blocks)
	assert.Equal(t, int64(3*4096), res.Stats.BytesTotal)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, data[:3*4096], got)
}

func TestRunCountBeyondInput(t *testing.T) {
	cfg := testConfig(t, 4096)
	writeRandom(t, cfg.Input, 2*4096+100)
	cfg.Count = 50

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(3), res.Stats.Blocks)
	assert.Equal(t, int64(2*4096+100), res.Stats.Bytes)
	assert.Equal(t, int64(2*4096+100), res.Stats.BytesTotal)
}

func TestRunSkipAndSeek(t *testing.T) {
	cfg := testConfig(t, 512)
	data := writeRandom(t, cfg.Input, 8*512)
	cfg.Skip = 2
	cfg.Seek = 3
	cfg.Count = 1

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(1), res.Stats.Blocks)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	require.Len(t, got, 4*512)
	assert.Equal(t, make([]byte, 3*512), got[:3*512])
	assert.Equal(t, data[2*512:3*512], got[3*512:])
}

func TestRunSkipPastEnd(t *testing.T) {
	cfg := testConfig(t, 512)
	writeRandom(t, cfg.Input, 1024)
	cfg.Skip = 10

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Zero(t, res.Stats.Blocks)
	assert.Zero(t, res.Stats.BytesTotal)
}

func TestRunSeekLeavesGap(t *testing.T) {
	cfg := testConfig(t, 1<<20)
	writeRandom(t, cfg.Input, 2<<20)
	cfg.Seek = 10
	cfg.Count = 1

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)

	fi, err := os.Stat(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, int64(11<<20), fi.Size())
	assert.LessOrEqual(t, res.GapHoles, int64(10<<20))
	if runtime.GOOS == "linux" {
		// Every Linux filesystem t.TempDir lands on (ext4, xfs, btrfs,
		// tmpfs) reports the truncated gap through SEEK_HOLE.
		assert.Positive(t, res.GapHoles)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	cfg := testConfig(t, 4096)
	writeRandom(t, cfg.Input, 8*4096)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, cfg)
	require.NoError(t, res.Err)
	assert.True(t, res.Cancelled)
	assert.Zero(t, res.Stats.Blocks)

	fi, err := os.Stat(cfg.Output)
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}

func TestRunCancelledMidTransfer(t *testing.T) {
	const bs = 4096
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	cfg := testConfig(t, bs)
	cfg.Input = StdStream
	cfg.Stdin = r
	cfg.Stats = stats.NewCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer w.Close()
		block := make([]byte, bs)
		if _, err := w.Write(block); err != nil {
			return
		}
		for cfg.Stats.Snapshot().Blocks < 1 {
			time.Sleep(time.Millisecond)
		}
		cancel()
		_, _ = w.Write(block)
	}()

	res := Run(ctx, cfg)
	require.NoError(t, res.Err)
	assert.True(t, res.Cancelled)
	assert.GreaterOrEqual(t, res.Stats.Blocks, int64(1))
	assert.LessOrEqual(t, res.Stats.Blocks, int64(2))
	assert.Equal(t, res.Stats.Blocks*bs, res.Stats.Bytes)

	fi, err := os.Stat(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, res.Stats.Bytes, fi.Size())
}

func TestRunStdinTotal(t *testing.T) {
	tests := []struct {
		name  string
		count int64
		total int64
	}{
		{"unbounded is unknown", 0, 0},
		{"count bounds the estimate", 4, 4 * 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, w, err := os.Pipe()
			require.NoError(t, err)
			defer r.Close()

			go func() {
				defer w.Close()
				_, _ = w.Write(make([]byte, 3*512))
			}()

			cfg := testConfig(t, 512)
			cfg.Input = StdStream
			cfg.Stdin = r
			cfg.Count = tt.count

			res := Run(context.Background(), cfg)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.total, res.Stats.BytesTotal)
			assert.Equal(t, int64(3*512), res.Stats.Bytes)
		})
	}
}

func TestRunStdoutReceivesData(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	cfg := testConfig(t, 512)
	data := writeRandom(t, cfg.Input, 2000)
	cfg.Output = StdStream
	cfg.Stdout = w

	got := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(r)
		got <- b
	}()

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(4), res.Stats.Blocks)

	// The engine leaves stdout open; the owner closes it.
	require.NoError(t, w.Close())
	assert.Equal(t, data, <-got)
}

func TestRunSkipOnPipeFails(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	cfg := testConfig(t, 512)
	cfg.Input = StdStream
	cfg.Stdin = r
	cfg.Skip = 1

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindPosition))
	assert.Contains(t, res.Err.Error(), "cannot skip input blocks")
}

func TestRunSeekOnPipeFails(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	cfg := testConfig(t, 512)
	writeRandom(t, cfg.Input, 512)
	cfg.Output = StdStream
	cfg.Stdout = w
	cfg.Seek = 1

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindPosition))
	assert.Contains(t, res.Err.Error(), "cannot seek output blocks")
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t, 512)

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindOpen))
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	assert.NoFileExists(t, cfg.Output)
}

func TestRunUnwritableOutput(t *testing.T) {
	cfg := testConfig(t, 512)
	writeRandom(t, cfg.Input, 512)
	cfg.Output = filepath.Join(t.TempDir(), "missing", "dst")

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindOpen))
	assert.Contains(t, res.Err.Error(), "cannot open output file")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 0)
	writeRandom(t, cfg.Input, 512)

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindConfig))
	assert.NoFileExists(t, cfg.Output)
}

func TestRunSameFileRejected(t *testing.T) {
	cfg := testConfig(t, 512)
	writeRandom(t, cfg.Input, 512)
	cfg.Output = cfg.Input

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindConfig))
}

func TestRunAutoBlockSize(t *testing.T) {
	cfg := testConfig(t, AutoBlockSize)
	writeRandom(t, cfg.Input, 1000)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, platform.DefaultBlockSize, res.BlockSize)
	assert.Equal(t, int64(1), res.Stats.Blocks)
}

func TestRunAutoBlockSizeFromDevice(t *testing.T) {
	cfg := testConfig(t, AutoBlockSize)
	cfg.Provider = &fakeProvider{deviceSize: 4096}
	writeRandom(t, cfg.Input, 3*4096)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(4096), res.BlockSize)
	assert.Equal(t, int64(3), res.Stats.Blocks)
}

func TestRunFsyncEveryBlock(t *testing.T) {
	p := &fakeProvider{}
	cfg := testConfig(t, 512)
	cfg.Provider = p
	cfg.Fsync = true
	writeRandom(t, cfg.Input, 5*512)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, 5, p.syncs)
}

func TestRunFsyncFailure(t *testing.T) {
	syncErr := errors.New("disk on fire")
	p := &fakeProvider{syncErr: syncErr}
	mon := &fakeMonitor{}
	cfg := testConfig(t, 512)
	cfg.Provider = p
	cfg.Monitor = mon
	cfg.Fsync = true
	writeRandom(t, cfg.Input, 5*512)

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.True(t, IsKind(res.Err, KindTransfer))
	assert.ErrorIs(t, res.Err, syncErr)
	assert.Contains(t, res.Err.Error(), "sync failed")
	assert.Zero(t, res.Stats.Blocks)

	assert.Equal(t, 1, mon.starts)
	assert.Equal(t, 1, mon.stops)
}

func TestRunMonitorLifecycle(t *testing.T) {
	mon := &fakeMonitor{}
	cfg := testConfig(t, 4096)
	cfg.Monitor = mon
	writeRandom(t, cfg.Input, 6*4096)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, mon.starts)
	assert.Equal(t, 1, mon.stops)
	assert.Equal(t, res.Stats.Blocks, mon.last.Blocks)
	assert.Equal(t, res.Stats.Bytes, mon.last.Bytes)
}

func TestRunMonitorNotStartedOnOpenFailure(t *testing.T) {
	mon := &fakeMonitor{}
	cfg := testConfig(t, 512)
	cfg.Monitor = mon

	res := Run(context.Background(), cfg)
	require.Error(t, res.Err)
	assert.Zero(t, mon.starts)
	assert.Zero(t, mon.stops)
}

func TestRunVerify(t *testing.T) {
	cfg := testConfig(t, 4096)
	writeRandom(t, cfg.Input, 10*4096+7)
	cfg.Verify = true
	cfg.Skip = 1
	cfg.Seek = 2

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.True(t, res.Verified)
}

func TestRunVerifySkippedForStreams(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	go func() {
		defer w.Close()
		_, _ = w.Write(make([]byte, 1024))
	}()

	cfg := testConfig(t, 512)
	cfg.Input = StdStream
	cfg.Stdin = r
	cfg.Verify = true

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.False(t, res.Verified)
}

func TestRunBandwidthLimit(t *testing.T) {
	cfg := testConfig(t, 4096)
	writeRandom(t, cfg.Input, 8*4096)
	cfg.BWLimit = 64 << 20

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(8), res.Stats.Blocks)
}

func TestRunBandwidthLimitCancelled(t *testing.T) {
	cfg := testConfig(t, 4096)
	writeRandom(t, cfg.Input, 64*4096)
	cfg.BWLimit = 4096

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	res := Run(ctx, cfg)
	require.NoError(t, res.Err)
	assert.True(t, res.Cancelled)
	assert.Less(t, res.Stats.Blocks, int64(64))
}

func TestRunDirectDisabledForUnalignedTail(t *testing.T) {
	p := &fakeProvider{direct: true}
	cfg := testConfig(t, 512)
	cfg.Provider = p
	cfg.Direct = true
	writeRandom(t, cfg.Input, 2*512+100)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(3), res.Stats.Blocks)
	// Input and output enabled, then the output cleared before the tail.
	assert.Equal(t, []bool{true, true, false}, p.setDirect)
}

func TestRunDirectWithUnalignedBlockSizeFallsBack(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Input:     filepath.Join(dir, "src"),
		Output:    filepath.Join(dir, "dst"),
		BlockSize: 1000,
		Direct:    true,
	}
	data := writeRandom(t, cfg.Input, 10*1000+123)

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	cfg, warnings = cfg.Normalize()
	assert.False(t, cfg.Direct)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "falling back to buffered I/O")

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(11), res.Stats.Blocks)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRunPreallocate(t *testing.T) {
	cfg := testConfig(t, 4096)
	data := writeRandom(t, cfg.Input, 5*4096)
	cfg.Preallocate = true

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)

	got, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestRunUsesProvidedCollector(t *testing.T) {
	c := stats.NewCollector()
	cfg := testConfig(t, 512)
	cfg.Stats = c
	writeRandom(t, cfg.Input, 1536)

	res := Run(context.Background(), cfg)
	require.NoError(t, res.Err)
	assert.Equal(t, c.Snapshot().Blocks, res.Stats.Blocks)
	assert.Equal(t, int64(3), c.Snapshot().Blocks)
}
