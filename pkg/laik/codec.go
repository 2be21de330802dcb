package laik

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor compresses and decompresses transfer payloads before they
// cross the backend's send/recv boundary (spec §6's byte transport is
// deliberately untyped; compression is a core-side concern layered on
// top of it). The teacher's produce/fetch path supports exactly these
// three codecs; laik keeps all three available and selectable via
// WithCompressor, defaulting to snappy.
type Compressor interface {
	Name() string
	Compress(dst, src []byte) []byte
	Decompress(dst, src []byte) ([]byte, error)
}

// SnappyCompressor is the default Compressor.
type SnappyCompressor struct{}

func (SnappyCompressor) Name() string { return "snappy" }

func (SnappyCompressor) Compress(dst, src []byte) []byte {
	return snappy.Encode(dst, src)
}

func (SnappyCompressor) Decompress(dst, src []byte) ([]byte, error) {
	return snappy.Decode(dst, src)
}

// ZstdCompressor wraps klauspost/compress's zstd implementation.
type ZstdCompressor struct {
	level zstd.EncoderLevel
}

// NewZstdCompressor returns a ZstdCompressor at the given level (0
// selects zstd's default level).
func NewZstdCompressor(level zstd.EncoderLevel) *ZstdCompressor {
	return &ZstdCompressor{level: level}
}

func (c *ZstdCompressor) Name() string { return "zstd" }

func (c *ZstdCompressor) Compress(dst, src []byte) []byte {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
	if err != nil {
		// Only returned for invalid options; our level is always valid.
		panic(err)
	}
	defer enc.Close()
	return enc.EncodeAll(src, dst)
}

func (c *ZstdCompressor) Decompress(dst, src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(src, dst)
}

// LZ4Compressor wraps pierrec/lz4.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Compress(dst, src []byte) []byte {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		panic(fmt.Errorf("laik: lz4 compress: %w", err))
	}
	if err := w.Close(); err != nil {
		panic(fmt.Errorf("laik: lz4 compress: %w", err))
	}
	return append(dst[:0], buf.Bytes()...)
}

func (LZ4Compressor) Decompress(dst, src []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(src))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("laik: lz4 decompress: %w", err)
	}
	return append(dst[:0], buf.Bytes()...), nil
}
