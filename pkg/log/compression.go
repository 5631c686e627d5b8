package log

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a capture file is compressed.
type Compression uint8

const (
	// CompressionNone writes plain concatenated CBOR events.
	CompressionNone Compression = 0

	// CompressionZstd wraps the event stream in a zstd frame.
	CompressionZstd Compression = 1

	// CompressionLZ4 wraps the event stream in an LZ4 frame.
	CompressionLZ4 Compression = 2
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// Frame magic numbers as they appear on disk.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// writeFlusher is a compressing writer.
type writeFlusher interface {
	io.WriteCloser
	Flush() error
}

func newCompressor(w io.Writer, c Compression) (writeFlusher, error) {
	switch c {
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

// detectCompression peeks at the start of r to identify the compression.
func detectCompression(r *bufio.Reader) Compression {
	head, _ := r.Peek(4)
	switch {
	case bytes.Equal(head, zstdMagic):
		return CompressionZstd
	case bytes.Equal(head, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// newDecompressor wraps r according to its detected compression. The
// returned release function frees decoder resources.
func newDecompressor(r io.Reader) (io.Reader, Compression, func(), error) {
	br := bufio.NewReader(r)
	c := detectCompression(br)

	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return dec, c, dec.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(br), c, func() {}, nil
	default:
		return br, c, func() {}, nil
	}
}
