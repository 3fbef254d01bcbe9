package ui

import (
	"sync"
	"time"

	"github.com/bamsammich/pdd/internal/stats"
)

const (
	// DefaultInterval is the minimum time between two renders.
	DefaultInterval = 100 * time.Millisecond

	// The first burstRenders renders may come burstDivisor times faster so
	// short transfers still show visible movement.
	burstRenders = 5
	burstDivisor = 4
)

// Monitor samples transfer statistics on an interval and hands them to a
// Presenter. It runs in its own goroutine between Start and Stop and only
// ever reads the statistics.
type Monitor struct {
	presenter Presenter
	interval  time.Duration

	reader   stats.Reader
	finished chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewMonitor creates a monitor with the presenter cfg selects.
func NewMonitor(cfg Config) *Monitor {
	return NewMonitorWith(NewPresenter(cfg), cfg.Interval)
}

// NewMonitorWith creates a monitor around an explicit presenter.
func NewMonitorWith(p Presenter, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{presenter: p, interval: interval}
}

// Start launches the render goroutine. It must be called at most once.
func (m *Monitor) Start(r stats.Reader) {
	m.reader = r
	m.finished = make(chan struct{})
	m.wg.Add(1)
	go m.run()
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval / burstDivisor)
	defer ticker.Stop()

	var last time.Time
	renders := 0
	for {
		select {
		case <-m.finished:
			return
		case now := <-ticker.C:
			gap := m.interval
			if renders < burstRenders {
				gap = m.interval / burstDivisor
			}
			if !last.IsZero() && now.Sub(last) < gap {
				continue
			}
			last = now
			renders++
			m.presenter.Render(m.reader.Snapshot())
		}
	}
}

// Stop signals the render goroutine, waits for it to exit and performs one
// final render so the display reflects the finished transfer. Safe to call
// more than once and without Start.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.finished == nil {
			return
		}
		close(m.finished)
		m.wg.Wait()
		m.presenter.Finish(m.reader.Snapshot())
	})
}
