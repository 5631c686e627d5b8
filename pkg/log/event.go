package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the session that captured the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// CommID is the comm (and model) the event concerns, if any.
	CommID string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame    *FrameEvent     `cbor:"10,keyasint,omitempty"` // Transport layer
	Message  *MessageEvent   `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	Mutation *MutationEvent  `cbor:"12,keyasint,omitempty"` // Registry changes
	Drop     *DropEvent      `cbor:"13,keyasint,omitempty"` // Messages ignored by the router
	Error    *ErrorEventData `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a message from the kernel.
	DirectionIn Direction = 0
	// DirectionOut indicates a message to the kernel.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message envelope layer.
	LayerWire Layer = 1
	// LayerRouter is the message dispatch layer.
	LayerRouter Layer = 2
	// LayerStore is the model registry.
	LayerStore Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerRouter:
		return "ROUTER"
	case LayerStore:
		return "STORE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a comm message or frame.
	CategoryMessage Category = 0
	// CategoryMutation indicates an accepted registry change.
	CategoryMutation Category = 1
	// CategoryDrop indicates a message the router ignored.
	CategoryDrop Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryMutation:
		return "MUTATION"
	case CategoryDrop:
		return "DROP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded comm message at the wire layer.
type MessageEvent struct {
	// MsgID is the header message id.
	MsgID string `cbor:"1,keyasint"`

	// MsgType is comm_open, comm_msg or comm_close (or anything else received).
	MsgType string `cbor:"2,keyasint"`

	// Method is data.method for comm_msg.
	Method string `cbor:"3,keyasint,omitempty"`

	// TargetName is content.target_name for comm_open.
	TargetName string `cbor:"4,keyasint,omitempty"`

	// Keys lists the top-level keys of data.state.
	Keys []string `cbor:"5,keyasint,omitempty"`

	// BufferPaths are the declared buffer paths, "/"-joined.
	BufferPaths []string `cbor:"6,keyasint,omitempty"`

	// BufferSizes are the lengths of the attached buffers.
	BufferSizes []int `cbor:"7,keyasint,omitempty"`

	// BufferDigests are BLAKE3 digests of the attached buffers.
	BufferDigests [][]byte `cbor:"8,keyasint,omitempty"`

	// Data is the JSON-encoded content data (may be truncated).
	Data []byte `cbor:"9,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"10,keyasint,omitempty"`
}

// MutationEvent captures an accepted change to the model registry.
type MutationEvent struct {
	// Op is the kind of change.
	Op MutationOp `cbor:"1,keyasint"`

	// ModelID is the changed model.
	ModelID string `cbor:"2,keyasint"`

	// ModelName is the model's _model_name.
	ModelName string `cbor:"3,keyasint,omitempty"`

	// Keys lists the patched keys for updates.
	Keys []string `cbor:"4,keyasint,omitempty"`

	// Version is the snapshot version published by the change.
	Version uint64 `cbor:"5,keyasint"`

	// Replaced is set when a create replaced a live model.
	Replaced bool `cbor:"6,keyasint,omitempty"`

	// Buffers is the number of buffers merged into the state.
	Buffers int `cbor:"7,keyasint,omitempty"`
}

// MutationOp is the kind of registry change.
type MutationOp uint8

const (
	// MutationCreate indicates a model was created.
	MutationCreate MutationOp = 0
	// MutationUpdate indicates a model was patched.
	MutationUpdate MutationOp = 1
	// MutationDelete indicates a model was removed.
	MutationDelete MutationOp = 2
)

// String returns the mutation op name.
func (o MutationOp) String() string {
	switch o {
	case MutationCreate:
		return "CREATE"
	case MutationUpdate:
		return "UPDATE"
	case MutationDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// DropEvent captures a message the router did not apply.
type DropEvent struct {
	// MsgType is the header msg_type of the dropped message.
	MsgType string `cbor:"1,keyasint"`

	// Reason says why the message was dropped.
	Reason string `cbor:"2,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
