package laik

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressorsRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("laik-transfer-payload"), 64)

	compressors := []Compressor{
		SnappyCompressor{},
		NewZstdCompressor(0),
		LZ4Compressor{},
	}

	for _, c := range compressors {
		t.Run(c.Name(), func(t *testing.T) {
			compressed := c.Compress(nil, payload)
			out, err := c.Decompress(nil, compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}
}

func TestDataEncodeDecodeRoundTripBelowThreshold(t *testing.T) {
	d := &Data{inst: &Instance{cfg: cfg{compressor: SnappyCompressor{}, compressMin: 4096}}}
	raw := []byte("short")
	encoded := d.encode(raw)
	decoded, err := d.decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDataEncodeDecodeRoundTripAboveThreshold(t *testing.T) {
	d := &Data{inst: &Instance{cfg: cfg{compressor: SnappyCompressor{}, compressMin: 8}}}
	raw := bytes.Repeat([]byte("x"), 128)
	encoded := d.encode(raw)
	require.Less(t, 0, len(encoded))
	decoded, err := d.decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
