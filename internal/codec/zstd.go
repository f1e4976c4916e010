package codec

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd implements Zstandard frames as stored in ZIP method 93.
type Zstd struct{}

// encoderLevel maps the 1..9 effort scale onto the four zstd speed presets.
func encoderLevel(level Level) zstd.EncoderLevel {
	switch {
	case level <= 2:
		return zstd.SpeedFastest
	case level <= 5:
		return zstd.SpeedDefault
	case level <= 8:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func (Zstd) Compress(src []byte, level Level) ([]byte, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel(level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	out := enc.EncodeAll(src, make([]byte, 0, len(src)/2+64))
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing zstd encoder: %w", err)
	}
	return out, nil
}

func (Zstd) Decompress(src []byte, expectedSize int) ([]byte, error) {
	if expectedSize < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrMalformedStream, expectedSize)
	}
	dec, err := zstd.NewReader(bytes.NewReader(src),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(uint64(expectedSize)+64<<10),
	)
	if err != nil {
		if dec != nil {
			dec.Close()
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	defer dec.Close()

	return readExact(dec, expectedSize, func(err error) error {
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	})
}
