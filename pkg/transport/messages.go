package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/commsync/commsync-go/pkg/wire"
)

// ErrDecode wraps errors from decoding a well-formed frame. The stream is
// still usable after it.
var ErrDecode = errors.New("undecodable message")

// Encoding selects how messages are encoded inside frames.
type Encoding uint8

const (
	// EncodingBinary uses the Jupyter websocket binary layout.
	EncodingBinary Encoding = iota

	// EncodingCBOR uses a single CBOR map per message.
	EncodingCBOR

	// EncodingJSON uses the bare JSON envelope. Buffers are lost.
	EncodingJSON
)

// String returns the encoding name.
func (e Encoding) String() string {
	switch e {
	case EncodingBinary:
		return "binary"
	case EncodingCBOR:
		return "cbor"
	case EncodingJSON:
		return "json"
	default:
		return fmt.Sprintf("unknown(%d)", e)
	}
}

// ParseEncoding parses an encoding name.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "binary":
		return EncodingBinary, nil
	case "cbor":
		return EncodingCBOR, nil
	case "json":
		return EncodingJSON, nil
	default:
		return 0, fmt.Errorf("unknown encoding: %q", name)
	}
}

// Encode encodes msg with e.
func (e Encoding) Encode(msg *wire.Message) ([]byte, error) {
	switch e {
	case EncodingBinary:
		return wire.EncodeBinary(msg)
	case EncodingCBOR:
		return wire.EncodeCBOR(msg)
	case EncodingJSON:
		return wire.EncodeJSON(msg)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", e)
	}
}

// Decode decodes a message encoded with e.
func (e Encoding) Decode(data []byte) (*wire.Message, error) {
	switch e {
	case EncodingBinary:
		return wire.DecodeBinary(data)
	case EncodingCBOR:
		return wire.DecodeCBOR(data)
	case EncodingJSON:
		return wire.DecodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", e)
	}
}

// MessageReader reads encoded messages from frames.
type MessageReader struct {
	frames   *FrameReader
	encoding Encoding
}

// NewMessageReader creates a reader decoding frames from fr with enc.
func NewMessageReader(fr *FrameReader, enc Encoding) *MessageReader {
	return &MessageReader{frames: fr, encoding: enc}
}

// ReadMessage reads and decodes the next frame. io.EOF is returned
// unwrapped at a clean end of stream.
func (r *MessageReader) ReadMessage() (*wire.Message, error) {
	frame, err := r.frames.ReadFrame()
	if err != nil {
		return nil, err
	}
	msg, err := r.encoding.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %s frame: %w", ErrDecode, r.encoding, err)
	}
	return msg, nil
}

// Next reads the next message unless ctx is done. The read itself is not
// interruptible.
func (r *MessageReader) Next(ctx context.Context) (*wire.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.ReadMessage()
}

// MessageWriter encodes messages into frames. It satisfies comm.Sender.
type MessageWriter struct {
	mu       sync.Mutex
	frames   *FrameWriter
	encoding Encoding
}

// NewMessageWriter creates a writer encoding messages to fw with enc.
func NewMessageWriter(fw *FrameWriter, enc Encoding) *MessageWriter {
	return &MessageWriter{frames: fw, encoding: enc}
}

// WriteMessage encodes msg and writes it as one frame.
func (w *MessageWriter) WriteMessage(msg *wire.Message) error {
	data, err := w.encoding.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", w.encoding, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames.WriteFrame(data)
}

// Send writes msg unless ctx is done.
func (w *MessageWriter) Send(ctx context.Context, msg *wire.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.WriteMessage(msg)
}
