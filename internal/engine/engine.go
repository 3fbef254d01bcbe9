package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/bamsammich/pdd/internal/platform"
	"github.com/bamsammich/pdd/internal/stats"
)

// Result is the outcome of a transfer.
type Result struct {
	Stats     stats.Snapshot
	BlockSize int64
	Cancelled bool // stopped early by ctx; not an error
	Verified  bool
	GapHoles  int64 // bytes of the output seek gap left unallocated
	Err       error
}

type state int

const (
	stateInitializing state = iota
	statePositioning
	stateTransferring
	stateDraining
	stateTerminated
)

var stateNames = [...]string{
	stateInitializing: "initializing",
	statePositioning:  "positioning",
	stateTransferring: "transferring",
	stateDraining:     "draining",
	stateTerminated:   "terminated",
}

func (s state) String() string { return stateNames[s] }

var errCancelled = errors.New("transfer cancelled")

// transfer holds everything one Run owns. Nothing in it outlives Run.
type transfer struct {
	cfg       Config
	provider  platform.Provider
	collector *stats.Collector
	state     state

	in      *Stream
	out     *Stream
	buf     *platform.AlignedBuffer
	bs      int64
	limiter *rate.Limiter

	monitoring bool
	cancelled  bool
	verified   bool
	gapHoles   int64
}

// Run executes one transfer, blocking until it completes. ctx is the
// cancellation token: it is polled between blocks and, once done, the
// transfer stops as if the input had ended. A cancelled transfer is reported
// through Result.Cancelled with a nil Err.
//
// Every exit path stops the monitor, releases the buffer and closes both
// streams before Run returns.
func Run(ctx context.Context, cfg Config) (res Result) {
	t := &transfer{
		cfg:       cfg,
		provider:  cfg.provider(),
		collector: cfg.Stats,
	}
	if t.collector == nil {
		t.collector = stats.NewCollector()
	}

	defer func() {
		if err := t.release(); err != nil && res.Err == nil {
			res.Err = err
		}
		t.enter(stateTerminated)
		res.Stats = t.collector.Snapshot()
	}()

	if _, err := cfg.Validate(); err != nil {
		return Result{Err: err}
	}

	err := t.run(ctx)
	return Result{
		BlockSize: t.bs,
		Cancelled: t.cancelled,
		Verified:  t.verified,
		GapHoles:  t.gapHoles,
		Err:       err,
	}
}

func (t *transfer) enter(s state) {
	t.state = s
	slog.Debug("transfer state", "state", s.String())
}

func (t *transfer) run(ctx context.Context) error {
	t.enter(stateInitializing)
	if err := t.initialize(); err != nil {
		return err
	}

	t.enter(statePositioning)
	if err := t.position(); err != nil {
		return err
	}

	t.enter(stateTransferring)
	t.collector.Start()
	if t.cfg.Monitor != nil {
		t.cfg.Monitor.Start(t.collector)
		t.monitoring = true
	}
	err := t.copyBlocks(ctx)

	t.enter(stateDraining)
	t.drain()
	if err != nil {
		return err
	}
	t.inspectGap()

	if t.cancelled {
		slog.Info("transfer cancelled", "blocks", t.collector.Snapshot().Blocks)
		return nil
	}
	if t.cfg.Verify {
		return t.verify()
	}
	return nil
}

func (t *transfer) initialize() error {
	in, err := OpenStream(t.cfg.Input, RoleInput, t.cfg)
	if err != nil {
		return err
	}
	t.in = in

	out, err := OpenStream(t.cfg.Output, RoleOutput, t.cfg)
	if err != nil {
		return err
	}
	t.out = out

	t.bs = ResolveBlockSize(t.cfg, t.in)
	if t.cfg.BlockSize == AutoBlockSize {
		if err := checkOffsets(t.cfg, t.bs); err != nil {
			return err
		}
	}
	slog.Debug("block size", "bytes", t.bs, "auto", t.cfg.BlockSize == AutoBlockSize)

	buf, err := platform.Allocate(int(t.bs))
	if err != nil {
		return &Error{
			Kind: KindAlloc,
			Op:   fmt.Sprintf("cannot allocate aligned buffer of %d bytes", t.bs),
			Err:  err,
		}
	}
	t.buf = buf

	if t.cfg.BWLimit > 0 {
		t.limiter = NewBWLimiter(t.cfg.BWLimit)
	}
	return nil
}

// position applies skip and seek. The output is repositioned without writing
// through the gap, so filesystems that support holes leave it sparse.
func (t *transfer) position() error {
	if t.cfg.Skip > 0 {
		if err := t.in.Seek(t.cfg.Skip * t.bs); err != nil {
			return &Error{Kind: KindPosition, Op: "cannot skip input blocks", Path: t.in.Path(), Err: err}
		}
	}
	if t.cfg.Seek > 0 {
		if err := t.out.Seek(t.cfg.Seek * t.bs); err != nil {
			return &Error{Kind: KindPosition, Op: "cannot seek output blocks", Path: t.out.Path(), Err: err}
		}
	}

	total := t.estimateTotal()
	t.collector.SetTotal(total)
	if t.cfg.Preallocate && total > 0 && t.out.IsRegular() {
		t.preallocate(total)
	}
	return nil
}

// preallocate reserves the range the copy will write, warning first when
// the destination filesystem reports less free space than that.
func (t *transfer) preallocate(total int64) {
	dir := filepath.Dir(t.out.Path())
	if free, ok := platform.FreeSpace(dir); ok && uint64(total) > free {
		slog.Warn("destination may run out of space",
			"path", t.out.Path(), "need", total, "free", free)
	}
	platform.Preallocate(t.out.File(), t.cfg.Seek*t.bs, total)
}

// estimateTotal returns the number of bytes the transfer should move, or 0
// when it cannot be known (unbounded reads from stdin or pipes).
func (t *transfer) estimateTotal() int64 {
	var limit int64
	if t.cfg.Count > 0 {
		limit = t.cfg.Count * t.bs
	}
	size, ok := t.in.Size()
	if !ok {
		return limit
	}
	total := max(size-t.cfg.Skip*t.bs, 0)
	if limit > 0 {
		total = min(total, limit)
	}
	return total
}

// copyBlocks is the transfer loop. It returns nil on end of input, count
// exhaustion or cancellation, and an *Error on any I/O failure.
func (t *transfer) copyBlocks(ctx context.Context) error {
	buf := t.buf.Bytes()[:t.bs]
	var blocks int64

	for t.cfg.Count == 0 || blocks < t.cfg.Count {
		if ctx.Err() != nil {
			t.cancelled = true
			return nil
		}

		n, rerr := t.in.Read(buf)
		if n > 0 {
			if err := t.writeBlock(ctx, buf[:n]); err != nil {
				if errors.Is(err, errCancelled) {
					t.cancelled = true
					return nil
				}
				return err
			}
			blocks++
			t.collector.Add(int64(n))
		}

		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return &Error{Kind: KindTransfer, Op: "read failed", Path: t.in.Path(), Err: rerr}
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func (t *transfer) writeBlock(ctx context.Context, p []byte) error {
	if t.limiter != nil {
		// WaitN only fails once ctx is done or its deadline would pass
		// before the bytes are admitted.
		if err := waitN(ctx, t.limiter, len(p)); err != nil {
			slog.Debug("bandwidth wait interrupted", "error", err)
			return errCancelled
		}
	}

	// A trailing partial block cannot be written with direct I/O.
	if t.out.direct && int64(len(p))%platform.SectorSize != 0 {
		if err := t.provider.SetDirect(t.out.File(), false); err != nil {
			return &Error{Kind: KindTransfer, Op: "cannot disable direct I/O for final block", Path: t.out.Path(), Err: err}
		}
		t.out.direct = false
		slog.Debug("direct I/O disabled for unaligned tail", "bytes", len(p))
	}

	w, err := t.out.Write(p)
	if err != nil {
		return &Error{Kind: KindTransfer, Op: "write failed", Path: t.out.Path(), Err: err}
	}
	if w != len(p) {
		return &Error{
			Kind: KindTransfer,
			Op:   fmt.Sprintf("short write (%d of %d bytes)", w, len(p)),
			Path: t.out.Path(),
			Err:  io.ErrShortWrite,
		}
	}

	if t.cfg.Fsync {
		if err := t.provider.DataSync(t.out.File()); err != nil {
			return &Error{Kind: KindTransfer, Op: "sync failed", Path: t.out.Path(), Err: err}
		}
	}
	return nil
}

// drain stops the clock and the monitor. The monitor's Stop performs the
// final render and joins, so nothing renders after drain returns.
func (t *transfer) drain() {
	t.collector.Finish()
	if t.monitoring {
		t.cfg.Monitor.Stop()
		t.monitoring = false
	}
}

// inspectGap records how much of the output seek gap the filesystem left as
// holes. Purely informational.
func (t *transfer) inspectGap() {
	if t.cfg.Seek == 0 || !t.out.IsRegular() {
		return
	}
	gap := t.cfg.Seek * t.bs
	holes, err := HoleBytes(t.out.File(), gap)
	if err != nil {
		slog.Debug("inspect seek gap", "path", t.out.Path(), "error", err)
		return
	}
	t.gapHoles = holes
	slog.Debug("seek gap", "bytes", gap, "holes", holes)
}

func (t *transfer) verify() error {
	if !t.in.IsRegular() || !t.out.IsRegular() {
		slog.Warn("verify skipped: input and output must both be regular files")
		return nil
	}
	n := t.collector.Snapshot().Bytes
	src, err := HashRange(t.in.Path(), t.cfg.Skip*t.bs, n)
	if err != nil {
		return &Error{Kind: KindTransfer, Op: "cannot hash input", Path: t.in.Path(), Err: err}
	}
	dst, err := HashRange(t.out.Path(), t.cfg.Seek*t.bs, n)
	if err != nil {
		return &Error{Kind: KindTransfer, Op: "cannot hash output", Path: t.out.Path(), Err: err}
	}
	if src != dst {
		return &Error{
			Kind: KindTransfer,
			Op:   "verification failed",
			Path: t.out.Path(),
			Err:  fmt.Errorf("checksum mismatch: input %s, output %s", src, dst),
		}
	}
	slog.Debug("verified", "bytes", n, "blake3", src)
	t.verified = true
	return nil
}

// release tears down everything the transfer acquired. It is safe on a
// partially initialized transfer and returns only errors that put the
// output's integrity in doubt.
func (t *transfer) release() error {
	if t.monitoring {
		t.drain()
	}
	if err := t.buf.Release(); err != nil {
		slog.Warn("release buffer", "error", err)
	}
	t.buf = nil

	if err := t.in.Close(); err != nil {
		slog.Warn("close input", "path", t.in.Path(), "error", err)
	}
	if err := t.out.Close(); err != nil {
		return &Error{Kind: KindTransfer, Op: "close failed", Path: t.out.Path(), Err: err}
	}
	return nil
}
