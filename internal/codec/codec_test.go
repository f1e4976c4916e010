package codec

import (
	"bytes"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samples() map[string][]byte {
	random := make([]byte, 64*1024)
	rand.New(rand.NewSource(7)).Read(random)

	return map[string][]byte{
		"empty":       {},
		"single byte": {'x'},
		"text":        []byte("hello world"),
		"repetitive":  bytes.Repeat([]byte("minizip "), 4096),
		"random":      random,
	}
}

func TestRoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"stored":  Stored{},
		"deflate": Deflate{},
		"zstd":    Zstd{},
	}

	for codecName, c := range codecs {
		for sampleName, data := range samples() {
			for _, level := range []Level{LevelFastest, LevelDefault, LevelBest} {
				t.Run(codecName+"/"+sampleName+"/"+level.String(), func(t *testing.T) {
					packed, err := c.Compress(data, level)
					require.NoError(t, err)

					unpacked, err := c.Decompress(packed, len(data))
					require.NoError(t, err)
					assert.True(t, bytes.Equal(data, unpacked), "round trip changed the payload")
				})
			}
		}
	}
}

func TestDeflateLevelsShrinkRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 8192)

	fast, err := Deflate{}.Compress(data, LevelFastest)
	require.NoError(t, err)
	best, err := Deflate{}.Compress(data, LevelBest)
	require.NoError(t, err)

	assert.Less(t, len(fast), len(data))
	assert.LessOrEqual(t, len(best), len(fast))
}

func TestDeflateRejectsInvalidLevel(t *testing.T) {
	_, err := Deflate{}.Compress([]byte("x"), Level(0))
	assert.ErrorIs(t, err, ErrInvalidLevel)

	_, err = Zstd{}.Compress([]byte("x"), Level(10))
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestDeflateDecompressTruncated(t *testing.T) {
	data := bytes.Repeat([]byte("truncate me please "), 200)
	packed, err := Deflate{}.Compress(data, LevelBest)
	require.NoError(t, err)

	_, err = Deflate{}.Decompress(packed[:len(packed)/2], len(data))
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestDeflateDecompressInvalidBackReference(t *testing.T) {
	// Final fixed-Huffman block whose first symbol is a length/distance pair
	// (length 3, distance 1) with nothing in the window yet.
	stream := []byte{0x03, 0x02, 0x00}

	_, err := Deflate{}.Decompress(stream, 3)
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestDeflateDecompressSizeMismatch(t *testing.T) {
	data := []byte("exactly twenty bytes")
	packed, err := Deflate{}.Compress(data, LevelDefault)
	require.NoError(t, err)

	_, err = Deflate{}.Decompress(packed, len(data)-1)
	assert.ErrorIs(t, err, ErrMalformedStream, "stream longer than declared")

	_, err = Deflate{}.Decompress(packed, len(data)+1)
	assert.ErrorIs(t, err, ErrMalformedStream, "stream shorter than declared")
}

// allocated reports how many bytes fn allocated on the heap.
func allocated(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestDecompressHugeDeclaredSize(t *testing.T) {
	const declared = 0xfffffff0
	data := []byte("a small member that claims to be four gigabytes")

	for name, c := range map[string]Codec{"deflate": Deflate{}, "zstd": Zstd{}} {
		t.Run(name, func(t *testing.T) {
			packed, err := c.Compress(data, LevelBest)
			require.NoError(t, err)

			var decErr error
			n := allocated(func() {
				_, decErr = c.Decompress(packed, declared)
			})
			assert.ErrorIs(t, decErr, ErrMalformedStream)
			assert.Less(t, n, uint64(64<<20), "decoder allocated %d bytes for a %d byte stream", n, len(packed))
		})
	}
}

func TestDeflateDecompressEmptyInput(t *testing.T) {
	_, err := Deflate{}.Decompress(nil, 0)
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestStoredSizeMismatch(t *testing.T) {
	_, err := Stored{}.Decompress([]byte("abc"), 4)
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestZstdDecompressGarbage(t *testing.T) {
	_, err := Zstd{}.Decompress([]byte("definitely not a zstd frame"), 10)
	assert.ErrorIs(t, err, ErrMalformedStream)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "best", want: LevelBest},
		{in: "FASTEST", want: LevelFastest},
		{in: " default ", want: LevelDefault},
		{in: "4", want: Level(4)},
		{in: "9", want: LevelBest},
		{in: "0", wantErr: true},
		{in: "10", wantErr: true},
		{in: "ultra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "best", LevelBest.String())
	assert.Equal(t, "4", Level(4).String())
}

func TestForMethod(t *testing.T) {
	for id, want := range map[uint16]Codec{0: Stored{}, 8: Deflate{}, 93: Zstd{}} {
		got, err := ForMethod(id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ForMethod(14)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}
