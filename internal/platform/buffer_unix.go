//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// allocRaw maps anonymous memory, which the kernel hands out page aligned.
// When the required alignment exceeds the page size the mapping is padded
// so an aligned window of length bytes always fits.
func allocRaw(length, align int) ([]byte, func([]byte) error, error) {
	size := length
	if align > os.Getpagesize() {
		size += align
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return mem, unix.Munmap, nil
}
