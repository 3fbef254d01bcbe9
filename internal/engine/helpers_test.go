package engine

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/pdd/internal/stats"
)

// fakeProvider is a platform.Provider with scriptable capabilities.
type fakeProvider struct {
	direct     bool
	deviceSize int64
	syncErr    error

	mu        sync.Mutex
	syncs     int
	setDirect []bool
}

func (*fakeProvider) Name() string                { return "fake" }
func (p *fakeProvider) SupportsDirectIO() bool    { return p.direct }
func (p *fakeProvider) SupportsDeviceQuery() bool { return p.deviceSize > 0 }

func (*fakeProvider) OpenFlags(_, syncIO bool) int {
	if syncIO {
		return os.O_SYNC
	}
	return 0
}

func (p *fakeProvider) SetDirect(_ *os.File, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setDirect = append(p.setDirect, on)
	return nil
}

func (p *fakeProvider) DeviceBlockSize(*os.File) (int64, bool) {
	return p.deviceSize, p.deviceSize > 0
}

func (p *fakeProvider) DataSync(f *os.File) error {
	p.mu.Lock()
	p.syncs++
	p.mu.Unlock()
	if p.syncErr != nil {
		return p.syncErr
	}
	return f.Sync()
}

// fakeMonitor records its lifecycle.
type fakeMonitor struct {
	mu      sync.Mutex
	starts  int
	stops   int
	started stats.Reader
	last    stats.Snapshot
}

func (m *fakeMonitor) Start(r stats.Reader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	m.started = r
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	if m.started != nil {
		m.last = m.started.Snapshot()
	}
}

// writeRandom creates a file of n random bytes and returns its contents.
func writeRandom(t *testing.T, path string, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data
}

// testConfig returns a file-to-file config inside a fresh temp dir.
func testConfig(t *testing.T, bs int64) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Input:     filepath.Join(dir, "src"),
		Output:    filepath.Join(dir, "dst"),
		BlockSize: bs,
		Provider:  &fakeProvider{},
	}
}
