package wire

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR envelopes are encoded canonically. Decoding tolerates duplicate
// keys (last wins) and indefinite lengths so that foreign encoders work.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic("wire: cbor encode options: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic("wire: cbor decode options: " + err.Error())
	}
}

// Marshal encodes v as canonical CBOR.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// envelopeCodec validates messages on both sides of a marshal function
// pair.
type envelopeCodec struct {
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

var (
	jsonCodec = envelopeCodec{json.Marshal, json.Unmarshal}
	cborCodec = envelopeCodec{Marshal, Unmarshal}
)

func (c envelopeCodec) encode(msg *Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	data, err := c.marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

func (c envelopeCodec) decode(data []byte) (*Message, error) {
	msg := new(Message)
	if err := c.unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}

// EncodeJSON encodes the envelope without its buffers.
func EncodeJSON(msg *Message) ([]byte, error) { return jsonCodec.encode(msg) }

// DecodeJSON decodes a JSON envelope. The message has no buffers.
func DecodeJSON(data []byte) (*Message, error) { return jsonCodec.decode(data) }

// EncodeCBOR encodes the envelope and its buffers as one CBOR map.
func EncodeCBOR(msg *Message) ([]byte, error) { return cborCodec.encode(msg) }

// DecodeCBOR decodes a CBOR-encoded message including its buffers.
func DecodeCBOR(data []byte) (*Message, error) { return cborCodec.decode(data) }
