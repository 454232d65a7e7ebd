// Package bytesource provides a read-only, random-access view over the
// bytes of an MMDB file, shared by the layout scanner, the value decoder and
// the trie navigator.
package bytesource

import (
	"bytes"

	"github.com/geodb-oss/mmdbreader/internal/mmdberrors"
)

// Source is a read-only, random-access view of the bytes of an opened MMDB
// file. It owns no resources beyond the slice it wraps: callers that mmap
// the file are responsible for unmapping it once the Source is no longer in
// use.
type Source struct {
	buf []byte
}

// New wraps buf. It does not copy buf; the caller must keep it alive and
// must not mutate it for the lifetime of the Source.
func New(buf []byte) Source {
	return Source{buf: buf}
}

// Len returns the number of bytes in the source.
func (s Source) Len() int {
	return len(s.buf)
}

// ReadAt returns the n bytes starting at offset. It fails with a
// KindTruncated error if the requested range runs past the end of the
// source.
func (s Source) ReadAt(offset, n uint) ([]byte, error) {
	end := offset + n
	if end < offset || end > uint(len(s.buf)) {
		return nil, mmdberrors.NewOffsetError()
	}
	return s.buf[offset:end], nil
}

// FindLast returns the offset of the LAST occurrence of needle in the
// source, or -1 if needle does not occur. Last-occurrence search is
// required because the metadata marker and the all-zero data section
// separator may both appear earlier in the file as ordinary encoded data;
// only the final occurrence of each is the real section boundary.
func (s Source) FindLast(needle []byte) int {
	return bytes.LastIndex(s.buf, needle)
}
