package platform

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// ErrAlloc is wrapped by every aligned buffer allocation failure.
var ErrAlloc = errors.New("aligned buffer allocation failed")

// AlignedBuffer is a byte region whose base address is a multiple of
// Alignment(). It is owned by a single transfer and must be released exactly
// once; Release on a released or nil buffer does nothing.
type AlignedBuffer struct {
	raw  []byte // the underlying allocation, possibly larger than buf
	buf  []byte
	free func([]byte) error
}

// Alignment returns the buffer alignment: the page size, but never less
// than 4096.
func Alignment() int {
	return max(os.Getpagesize(), MinAlignment)
}

// roundUp rounds n up to a multiple of align (a power of two).
func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Allocate returns a zeroed buffer of at least size bytes, rounded up to the
// alignment, whose first byte is aligned.
func Allocate(size int) (*AlignedBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAlloc, size)
	}
	align := Alignment()
	length := roundUp(size, align)

	raw, free, err := allocRaw(length, align)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrAlloc, length, err)
	}

	off := alignOffset(raw, align)
	return &AlignedBuffer{
		raw:  raw,
		buf:  raw[off : off+length : off+length],
		free: free,
	}, nil
}

// alignOffset returns how far into b the first aligned address lies.
func alignOffset(b []byte, align int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
}

// Bytes returns the aligned region. It is nil after Release.
func (b *AlignedBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.buf
}

// Len returns the aligned length.
func (b *AlignedBuffer) Len() int {
	return len(b.Bytes())
}

// Release frees the region. Safe to call more than once and on nil.
func (b *AlignedBuffer) Release() error {
	if b == nil || b.raw == nil {
		return nil
	}
	raw := b.raw
	b.raw, b.buf = nil, nil
	if b.free == nil {
		return nil
	}
	return b.free(raw)
}
