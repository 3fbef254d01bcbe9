//go:build !(linux || darwin || freebsd)

package engine

import "os"

// Segment describes a contiguous region of a file.
type Segment struct {
	Offset int64
	Length int64
	IsData bool
}

// DetectSparseSegments reports the whole file as data where SEEK_DATA and
// SEEK_HOLE are unavailable.
func DetectSparseSegments(_ *os.File, fileSize int64) ([]Segment, error) {
	if fileSize == 0 {
		return nil, nil
	}
	return []Segment{{Offset: 0, Length: fileSize, IsData: true}}, nil
}

// HoleBytes always reports zero holes on this platform.
func HoleBytes(_ *os.File, _ int64) (int64, error) { return 0, nil }
