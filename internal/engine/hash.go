package engine

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashRange computes the BLAKE3 hash of length bytes of the file at path
// starting at offset, returning the hex-encoded digest. A file shorter than
// the range hashes only what exists, so a mismatch surfaces as a different
// digest rather than an error.
func HashRange(path string, offset, length int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, io.NewSectionReader(f, offset, length), buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	digest := h.Sum(nil)
	return hex.EncodeToString(digest), nil
}
