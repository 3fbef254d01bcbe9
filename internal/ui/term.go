package ui

import "golang.org/x/term"

const (
	defaultColumns = 80
	minBarWidth    = 5

	// barOverhead is everything on the progress line besides the bar:
	// brackets, percentage, size, speed and the ETA suffix.
	barOverhead = 60
)

// IsTTY reports whether fd is a terminal. Progress redraws with carriage
// returns only on a TTY.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the width of the terminal on fd in columns, falling back
// to 80 when it cannot be queried.
func TermWidth(fd uintptr) int {
	cols, _, err := term.GetSize(int(fd))
	if err != nil || cols <= 0 {
		return defaultColumns
	}
	return cols
}

// FitBarWidth shrinks the requested bar width so a full progress line fits
// in cols columns without wrapping, but never below a usable minimum.
func FitBarWidth(want, cols int) int {
	return min(want, max(cols-barOverhead, minBarWidth))
}
