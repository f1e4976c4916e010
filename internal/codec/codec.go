// Package codec compresses and decompresses whole in-memory member payloads.
//
// Three codecs are provided: Stored (verbatim copy), Deflate (RFC 1951, ZIP
// method 8) and Zstd (ZIP method 93). All of them operate on finite buffers;
// there is no streaming mode.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedStream is returned when a compressed stream is truncated,
	// contains an invalid back-reference, or does not expand to the declared size.
	ErrMalformedStream = errors.New("codec: malformed stream")

	// ErrInvalidLevel is returned for a compression level outside 1..9.
	ErrInvalidLevel = errors.New("codec: invalid compression level")

	// ErrUnsupportedMethod is returned by ForMethod for a method id with no codec.
	ErrUnsupportedMethod = errors.New("codec: unsupported compression method")
)

// Level selects how much effort the compressor spends. Higher levels are
// slower and usually smaller; output differs between levels but always
// decompresses to the same bytes.
type Level int

const (
	LevelFastest Level = 1
	LevelFast    Level = 3
	LevelDefault Level = 6
	LevelBetter  Level = 7
	LevelBest    Level = 9
)

var levelNames = map[string]Level{
	"fastest": LevelFastest,
	"fast":    LevelFast,
	"default": LevelDefault,
	"better":  LevelBetter,
	"best":    LevelBest,
}

// Valid reports whether l is within 1..9.
func (l Level) Valid() bool {
	return l >= LevelFastest && l <= LevelBest
}

func (l Level) String() string {
	for name, v := range levelNames {
		if v == l {
			return name
		}
	}
	return strconv.Itoa(int(l))
}

// ParseLevel accepts a level name (fastest, fast, default, better, best) or a
// number from 1 to 9.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if l, ok := levelNames[s]; ok {
		return l, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Level(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return Level(n), nil
}

// Codec compresses and decompresses complete buffers.
type Codec interface {
	// Compress returns the encoded form of src.
	Compress(src []byte, level Level) ([]byte, error)

	// Decompress decodes src, which must expand to exactly expectedSize bytes.
	Decompress(src []byte, expectedSize int) ([]byte, error)
}

// Stored copies data verbatim.
type Stored struct{}

func (Stored) Compress(src []byte, _ Level) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

func (Stored) Decompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) != expectedSize {
		return nil, fmt.Errorf("%w: stored payload is %d bytes, expected %d", ErrMalformedStream, len(src), expectedSize)
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// ZIP method ids served by this package.
const (
	MethodStored  uint16 = 0
	MethodDeflate uint16 = 8
	MethodZstd    uint16 = 93
)

// ForMethod returns the codec for a ZIP compression method id.
func ForMethod(id uint16) (Codec, error) {
	switch id {
	case MethodStored:
		return Stored{}, nil
	case MethodDeflate:
		return Deflate{}, nil
	case MethodZstd:
		return Zstd{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, id)
	}
}

// Compile-time checks that the codecs implement Codec.
var (
	_ Codec = Stored{}
	_ Codec = Deflate{}
	_ Codec = Zstd{}
)
