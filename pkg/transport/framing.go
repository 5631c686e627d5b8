package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/commsync/commsync-go/pkg/log"
)

const (
	// PrefixSize is the length of the big-endian uint32 that precedes
	// every frame payload.
	PrefixSize = 4

	// DefaultMaxMessageSize bounds a frame payload (16 MB). Frames carry
	// binary widget buffers, so the limit is generous.
	DefaultMaxMessageSize = 16 << 20

	// MaxCapturedFrameData is how much of a payload a capture event keeps.
	MaxCapturedFrameData = 4096
)

var (
	ErrFrameEmpty     = errors.New("empty frame")
	ErrFrameTooLarge  = errors.New("frame too large")
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameSize is the on-stream size of a frame with payloadSize bytes.
func FrameSize(payloadSize int) int { return PrefixSize + payloadSize }

func checkSize(n int, limit uint32) error {
	switch {
	case n == 0:
		return ErrFrameEmpty
	case uint64(n) > uint64(limit):
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, limit)
	}
	return nil
}

// frameCapture reports frames to a protocol logger. The zero value
// captures nothing.
type frameCapture struct {
	logger    log.Logger
	sessionID string
}

// SetLogger sends every frame to logger, tagged with sessionID. A nil
// logger turns capture off.
func (c *frameCapture) SetLogger(logger log.Logger, sessionID string) {
	c.logger = logger
	c.sessionID = sessionID
}

func (c *frameCapture) capture(payload []byte, dir log.Direction) {
	if c.logger == nil {
		return
	}
	data, truncated := payload, false
	if len(data) > MaxCapturedFrameData {
		data, truncated = data[:MaxCapturedFrameData], true
	}
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.sessionID,
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      FrameSize(len(payload)),
			Data:      data,
			Truncated: truncated,
		},
	})
}

// FrameWriter writes length-prefixed frames. It is safe for concurrent
// use; frames from different goroutines never interleave.
type FrameWriter struct {
	frameCapture

	mu    sync.Mutex
	w     io.Writer
	limit uint32
}

// NewFrameWriter returns a FrameWriter with DefaultMaxMessageSize.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return NewFrameWriterWithMaxSize(w, DefaultMaxMessageSize)
}

// NewFrameWriterWithMaxSize returns a FrameWriter that rejects payloads
// over maxSize. Zero means DefaultMaxMessageSize.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize uint32) *FrameWriter {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &FrameWriter{w: w, limit: maxSize}
}

// WriteFrame writes payload with its length prefix in a single Write.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if err := checkSize(len(payload), fw.limit); err != nil {
		return err
	}

	frame := make([]byte, PrefixSize, FrameSize(len(payload)))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	frame = append(frame, payload...)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	fw.capture(payload, log.DirectionOut)
	return nil
}

// FrameReader reads length-prefixed frames. It is not safe for concurrent
// use.
type FrameReader struct {
	frameCapture

	r      io.Reader
	limit  uint32
	prefix [PrefixSize]byte
}

// NewFrameReader returns a FrameReader with DefaultMaxMessageSize.
func NewFrameReader(r io.Reader) *FrameReader {
	return NewFrameReaderWithMaxSize(r, DefaultMaxMessageSize)
}

// NewFrameReaderWithMaxSize returns a FrameReader that rejects frames
// announcing more than maxSize bytes. Zero means DefaultMaxMessageSize.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize uint32) *FrameReader {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &FrameReader{r: r, limit: maxSize}
}

// ReadFrame returns the next payload. A clean end of stream between
// frames is io.EOF; a stream that ends inside a frame is
// ErrFrameTruncated.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if err := fr.fill(fr.prefix[:]); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint32(fr.prefix[:])
	if err := checkSize(int(n), fr.limit); err != nil {
		return nil, err
	}

	payload := make([]byte, n)
	if err := fr.fill(payload); err != nil {
		if err == io.EOF {
			err = ErrFrameTruncated
		}
		return nil, err
	}
	fr.capture(payload, log.DirectionIn)
	return payload, nil
}

func (fr *FrameReader) fill(buf []byte) error {
	_, err := io.ReadFull(fr.r, buf)
	switch {
	case err == nil, err == io.EOF:
		return err
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ErrFrameTruncated
	default:
		return fmt.Errorf("read frame: %w", err)
	}
}
