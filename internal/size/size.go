// Package size parses and formats byte counts using powers of 1024.
package size

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is returned for size literals that cannot be parsed.
var ErrInvalid = errors.New("invalid size")

const (
	KiB int64 = 1 << 10
	MiB int64 = 1 << 20
	GiB int64 = 1 << 30
	TiB int64 = 1 << 40
)

// Parse parses a size literal: decimal digits optionally followed by a single
// K, M, G or T suffix (case-insensitive). No suffix means raw bytes.
// On failure it returns 0 and an error wrapping ErrInvalid.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	multiplier := int64(1)
	switch strings.ToUpper(s[i:]) {
	case "":
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalid, s)
	}
	return n * multiplier, nil
}

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// Format renders a byte count with two decimals in the largest unit that keeps
// the value below 1024, stopping at TB.
func Format(b float64) string {
	unit := 0
	for b >= 1024 && unit < len(units)-1 {
		b /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", b, units[unit])
}
