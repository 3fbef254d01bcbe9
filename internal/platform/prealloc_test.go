package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreallocateKeepsApparentSize(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	Preallocate(f, 4096, 1<<20)

	fi, err := f.Stat()
	require.NoError(t, err)
	assert.Zero(t, fi.Size())
}
