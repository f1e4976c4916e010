package archive

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MemberName derives the stored member name from a source path: the last
// path element, every extension kept. Both '/' and '\' separate elements and
// a leading drive letter is dropped, so Windows-style paths give the same
// result on every platform.
func MemberName(sourcePath string) string {
	name := sourcePath
	if len(name) >= 2 && name[1] == ':' && isDriveLetter(name[0]) {
		name = name[2:]
	}
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// ReadSource reads exactly size bytes from r into a new buffer. Sizes above
// limit (when limit > 0) fail with OutOfMemory before anything is allocated;
// fewer bytes than size fail with ShortRead.
func ReadSource(r io.Reader, size, limit int64) ([]byte, error) {
	if size < 0 {
		return nil, newError(InputUnreadable, "read", "", fmt.Errorf("negative size %d", size))
	}
	if limit > 0 && size > limit {
		return nil, newError(OutOfMemory, "read", "", fmt.Errorf("%d bytes exceeds the %d byte buffer limit", size, limit))
	}
	if size != int64(int(size)) {
		return nil, newError(OutOfMemory, "read", "", fmt.Errorf("%d bytes does not fit in memory", size))
	}

	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return nil, newError(ShortRead, "read", "", fmt.Errorf("got %d of %d bytes", n, size))
	default:
		return nil, newError(InputUnreadable, "read", "", err)
	}
}
