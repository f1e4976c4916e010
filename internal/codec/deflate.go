package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Deflate implements raw DEFLATE as stored in ZIP method 8 (no zlib or gzip framing).
type Deflate struct{}

// Compress encodes src at the given level.
func (Deflate) Compress(src []byte, level Level) ([]byte, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, int(level))
	if err != nil {
		return nil, fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("deflating: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flushing deflate stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates src. The stream must be complete and expand to exactly
// expectedSize bytes.
func (Deflate) Decompress(src []byte, expectedSize int) ([]byte, error) {
	if expectedSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrMalformedStream, expectedSize)
	}

	r := flate.NewReader(bytes.NewReader(src))
	defer func() { _ = r.Close() }()

	return readExact(r, expectedSize, malformed)
}

// readExact drains r into a buffer that grows with the data actually decoded,
// never with expectedSize. One byte past expectedSize is read so that a
// stream which expands further is caught.
func readExact(r io.Reader, expectedSize int, wrap func(error) error) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, int64(expectedSize)+1))
	if err != nil {
		return nil, wrap(err)
	}
	switch {
	case n > int64(expectedSize):
		return nil, fmt.Errorf("%w: stream expands past %d bytes", ErrMalformedStream, expectedSize)
	case n < int64(expectedSize):
		return nil, fmt.Errorf("%w: expanded to %d bytes, expected %d", ErrMalformedStream, n, expectedSize)
	}
	return buf.Bytes(), nil
}

func malformed(err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case errors.As(err, &corrupt):
		return fmt.Errorf("%w: corrupt input at offset %d", ErrMalformedStream, int64(corrupt))
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return fmt.Errorf("%w: truncated stream", ErrMalformedStream)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
}
