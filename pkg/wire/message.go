package wire

import (
	"errors"

	"github.com/commsync/commsync-go/pkg/value"
)

// Message types handled by the router.
const (
	MsgTypeCommOpen  = "comm_open"
	MsgTypeCommMsg   = "comm_msg"
	MsgTypeCommClose = "comm_close"
)

// Methods carried in comm_msg data.
const (
	MethodUpdate = "update"
	MethodCustom = "custom"
)

// TargetName is the comm target under which widget models are opened.
const TargetName = "jupyter.widget"

// ProtocolVersion is the widget message protocol version placed in
// outgoing comm_msg metadata.
const ProtocolVersion = "2.1.0"

// ErrMissingMsgType is returned when a message header has no msg_type.
var ErrMissingMsgType = errors.New("missing msg_type")

// Header identifies a message.
type Header struct {
	MsgID    string `json:"msg_id" cbor:"msg_id"`
	MsgType  string `json:"msg_type" cbor:"msg_type"`
	Username string `json:"username,omitempty" cbor:"username,omitempty"`
	Session  string `json:"session,omitempty" cbor:"session,omitempty"`
	Date     string `json:"date,omitempty" cbor:"date,omitempty"`
	Version  string `json:"version,omitempty" cbor:"version,omitempty"`
}

// Data is the comm payload.
type Data struct {
	// State is the full state (comm_open) or a patch (comm_msg update).
	State *value.Map `json:"state,omitempty" cbor:"state,omitempty"`

	// Method is "update" or "custom" for comm_msg.
	Method string `json:"method,omitempty" cbor:"method,omitempty"`

	// BufferPaths locate Message.Buffers inside State.
	BufferPaths BufferPaths `json:"buffer_paths,omitempty" cbor:"buffer_paths,omitempty"`

	// Content is the payload of a custom message.
	Content *value.Value `json:"content,omitempty" cbor:"content,omitempty"`
}

// Content addresses a comm.
type Content struct {
	CommID     string `json:"comm_id,omitempty" cbor:"comm_id,omitempty"`
	TargetName string `json:"target_name,omitempty" cbor:"target_name,omitempty"`
	Data       *Data  `json:"data,omitempty" cbor:"data,omitempty"`
}

// Message is a comm protocol message.
type Message struct {
	Header       Header     `json:"header" cbor:"header"`
	ParentHeader *Header    `json:"parent_header,omitempty" cbor:"parent_header,omitempty"`
	Metadata     *value.Map `json:"metadata,omitempty" cbor:"metadata,omitempty"`
	Content      Content    `json:"content" cbor:"content"`
	Channel      string     `json:"channel,omitempty" cbor:"channel,omitempty"`

	// Buffers travel outside the JSON envelope.
	Buffers [][]byte `json:"-" cbor:"buffers,omitempty"`
}

// Validate checks the fields every message must carry.
func (m *Message) Validate() error {
	if m.Header.MsgType == "" {
		return ErrMissingMsgType
	}
	return nil
}

// MsgType returns the header message type.
func (m *Message) MsgType() string {
	return m.Header.MsgType
}

// CommID returns content.comm_id.
func (m *Message) CommID() string {
	return m.Content.CommID
}

// Method returns data.method, or "" when there is no data.
func (m *Message) Method() string {
	if m.Content.Data == nil {
		return ""
	}
	return m.Content.Data.Method
}

// State returns data.state, or nil when absent.
func (m *Message) State() *value.Map {
	if m.Content.Data == nil {
		return nil
	}
	return m.Content.Data.State
}

// BufferPaths returns data.buffer_paths, or nil when absent.
func (m *Message) BufferPaths() BufferPaths {
	if m.Content.Data == nil {
		return nil
	}
	return m.Content.Data.BufferPaths
}
