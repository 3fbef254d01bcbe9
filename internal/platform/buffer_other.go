//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package platform

// allocRaw over-allocates from the Go heap so an aligned window fits.
// The garbage collector reclaims it once released.
func allocRaw(length, align int) ([]byte, func([]byte) error, error) {
	return make([]byte, length+align), nil, nil
}
