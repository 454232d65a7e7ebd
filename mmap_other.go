//go:build appengine || wasm || (!windows && !linux && !darwin && !freebsd && !openbsd && !netbsd && !solaris && !dragonfly)

package mmdbreader

import "errors"

// mmap is unsupported on this platform; Open falls back to reading the
// whole file into memory.
func mmap(_ int, _ int) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

func munmap(_ []byte) error {
	return nil
}
