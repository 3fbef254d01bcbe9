//go:build linux || freebsd

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// setStatusFlag sets or clears a file status flag with F_GETFL/F_SETFL.
//
//nolint:gosec // G115: fd values are small non-negative integers
func setStatusFlag(f *os.File, flag int, on bool) error {
	fd := f.Fd()
	cur, err := unix.FcntlInt(fd, unix.F_GETFL, 0)
	if err != nil {
		return err
	}
	next := cur &^ flag
	if on {
		next = cur | flag
	}
	if next == cur {
		return nil
	}
	_, err = unix.FcntlInt(fd, unix.F_SETFL, next)
	return err
}
