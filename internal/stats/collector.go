package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks copy statistics with lock-free atomic counters. The copy
// loop is the only writer; progress monitors read snapshots concurrently and
// tolerate values that are a block behind.
type Collector struct {
	blocksCopied atomic.Int64
	bytesCopied  atomic.Int64
	bytesTotal   atomic.Int64 // 0 when the transfer size is unknown
	frozen       atomic.Int64 // elapsed nanoseconds once Finish is called, else 0
	startTime    atomic.Pointer[time.Time]
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	c := &Collector{}
	c.Start()
	return c
}

// Reader is the read side of a Collector.
type Reader interface {
	Snapshot() Snapshot
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Blocks     int64
	Bytes      int64
	BytesTotal int64
	Elapsed    time.Duration
}

// Start resets the clock.
func (c *Collector) Start() {
	now := time.Now()
	c.startTime.Store(&now)
	c.frozen.Store(0)
}

// SetTotal records the expected transfer size; 0 means unknown.
func (c *Collector) SetTotal(bytes int64) { c.bytesTotal.Store(bytes) }

// Add records one completed block of n bytes.
func (c *Collector) Add(n int64) {
	c.bytesCopied.Add(n)
	c.blocksCopied.Add(1)
}

// Finish stops the clock; later snapshots report the elapsed time at this
// point. Calling it again has no effect.
func (c *Collector) Finish() {
	d := time.Since(*c.startTime.Load())
	if d <= 0 {
		d = 1
	}
	c.frozen.CompareAndSwap(0, int64(d))
}

// Elapsed returns time since Start, or the frozen duration after Finish.
func (c *Collector) Elapsed() time.Duration {
	if d := c.frozen.Load(); d != 0 {
		return time.Duration(d)
	}
	return time.Since(*c.startTime.Load())
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Blocks:     c.blocksCopied.Load(),
		Bytes:      c.bytesCopied.Load(),
		BytesTotal: c.bytesTotal.Load(),
		Elapsed:    c.Elapsed(),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("blocks=%d bytes=%d total=%d elapsed=%s",
		s.Blocks, s.Bytes, s.BytesTotal, s.Elapsed.Round(time.Millisecond))
}
