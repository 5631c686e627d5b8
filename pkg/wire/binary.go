package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Binary framing errors.
var (
	ErrBinaryTruncated = errors.New("binary message truncated")
	ErrBinaryOffsets   = errors.New("binary message offsets out of order")
	ErrBinaryEmpty     = errors.New("binary message has no segments")
)

// EncodeBinary encodes msg in the Jupyter websocket binary layout:
//
//	uint32 n                 number of segments (1 + len(buffers))
//	uint32 offsets[n]        start of each segment from the message start
//	JSON envelope
//	buffers...
//
// All integers are big-endian.
func EncodeBinary(msg *Message) ([]byte, error) {
	envelope, err := EncodeJSON(msg)
	if err != nil {
		return nil, err
	}

	segments := make([][]byte, 0, len(msg.Buffers)+1)
	segments = append(segments, envelope)
	segments = append(segments, msg.Buffers...)

	n := len(segments)
	headerLen := 4 * (n + 1)
	total := headerLen
	for _, seg := range segments {
		total += len(seg)
	}

	out := make([]byte, headerLen, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(n))
	offset := headerLen
	for i, seg := range segments {
		binary.BigEndian.PutUint32(out[4*(i+1):], uint32(offset))
		offset += len(seg)
	}
	for _, seg := range segments {
		out = append(out, seg...)
	}
	return out, nil
}

// DecodeBinary decodes the Jupyter websocket binary layout. The returned
// buffers are copies.
func DecodeBinary(data []byte) (*Message, error) {
	if len(data) < 4 {
		return nil, ErrBinaryTruncated
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))
	if n == 0 {
		return nil, ErrBinaryEmpty
	}
	headerLen := 4 * (n + 1)
	if n > len(data)/4 || len(data) < headerLen {
		return nil, fmt.Errorf("%w: %d segments in %d bytes", ErrBinaryTruncated, n, len(data))
	}

	offsets := make([]int, n+1)
	for i := 0; i < n; i++ {
		offsets[i] = int(binary.BigEndian.Uint32(data[4*(i+1):]))
	}
	offsets[n] = len(data)

	for i := 0; i < n; i++ {
		if offsets[i] < headerLen || offsets[i] > offsets[i+1] {
			return nil, fmt.Errorf("%w: segment %d at %d", ErrBinaryOffsets, i, offsets[i])
		}
	}

	msg, err := DecodeJSON(data[offsets[0]:offsets[1]])
	if err != nil {
		return nil, err
	}

	if n > 1 {
		msg.Buffers = make([][]byte, n-1)
		for i := 1; i < n; i++ {
			buf := make([]byte, offsets[i+1]-offsets[i])
			copy(buf, data[offsets[i]:offsets[i+1]])
			msg.Buffers[i-1] = buf
		}
	}
	return msg, nil
}
