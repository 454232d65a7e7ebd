//go:build (linux || darwin || freebsd || openbsd || netbsd || solaris || dragonfly) && !appengine

package mmdbreader

import (
	"golang.org/x/sys/unix"
)

func mmap(fd int, length int) ([]byte, error) {
	data, err := unix.Mmap(fd, 0, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func munmap(b []byte) error {
	if b == nil {
		return nil
	}
	return unix.Munmap(b)
}
