package crypto

import "runtime"

// Wipe zeroes b. This is best-effort; the compiler may still have copied
// the contents elsewhere.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
