package log

import (
	"encoding/json"
	"time"

	"github.com/commsync/commsync-go/pkg/wire"
)

// MaxDataSize caps the JSON payload stored in a MessageEvent.
const MaxDataSize = 4096

// NewMessageEvent summarizes msg for capture. Buffers are recorded by size
// and digest, not content.
func NewMessageEvent(msg *wire.Message) *MessageEvent {
	ev := &MessageEvent{
		MsgID:      msg.Header.MsgID,
		MsgType:    msg.Header.MsgType,
		Method:     msg.Method(),
		TargetName: msg.Content.TargetName,
	}

	if state := msg.State(); state != nil {
		ev.Keys = state.Keys()
	}
	for _, p := range msg.BufferPaths() {
		ev.BufferPaths = append(ev.BufferPaths, p.String())
	}
	if len(msg.Buffers) > 0 {
		ev.BufferSizes = make([]int, len(msg.Buffers))
		for i, buf := range msg.Buffers {
			ev.BufferSizes[i] = len(buf)
		}
		ev.BufferDigests = DigestBuffers(msg.Buffers)
	}

	if msg.Content.Data != nil {
		if data, err := json.Marshal(msg.Content.Data); err == nil {
			if len(data) > MaxDataSize {
				data = data[:MaxDataSize]
				ev.Truncated = true
			}
			ev.Data = data
		}
	}
	return ev
}

// MessageCaptured builds a wire-layer event for msg.
func MessageCaptured(sessionID string, dir Direction, msg *wire.Message) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: dir,
		Layer:     LayerWire,
		Category:  CategoryMessage,
		CommID:    msg.CommID(),
		Message:   NewMessageEvent(msg),
	}
}

// MessageDropped builds a router-layer event for a message that was not
// applied.
func MessageDropped(sessionID string, msg *wire.Message, reason string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: DirectionIn,
		Layer:     LayerRouter,
		Category:  CategoryDrop,
		CommID:    msg.CommID(),
		Drop: &DropEvent{
			MsgType: msg.MsgType(),
			Reason:  reason,
		},
	}
}

// ErrorOccurred builds an error event.
func ErrorOccurred(sessionID string, layer Layer, err error, context string) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Layer:     layer,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	}
}
