package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.CommID != "" {
		attrs = append(attrs, slog.String("comm_id", event.CommID))
	}

	// Add type-specific attributes
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("msg_id", event.Message.MsgID),
			slog.String("msg_type", event.Message.MsgType),
		)
		if event.Message.Method != "" {
			attrs = append(attrs, slog.String("method", event.Message.Method))
		}
		if len(event.Message.Keys) > 0 {
			attrs = append(attrs, slog.Any("keys", event.Message.Keys))
		}
		if n := len(event.Message.BufferSizes); n > 0 {
			attrs = append(attrs, slog.Int("buffers", n))
		}
	case event.Mutation != nil:
		attrs = append(attrs,
			slog.String("op", event.Mutation.Op.String()),
			slog.String("model_id", event.Mutation.ModelID),
			slog.Uint64("version", event.Mutation.Version),
		)
		if event.Mutation.ModelName != "" {
			attrs = append(attrs, slog.String("model_name", event.Mutation.ModelName))
		}
		if len(event.Mutation.Keys) > 0 {
			attrs = append(attrs, slog.Any("keys", event.Mutation.Keys))
		}
		if event.Mutation.Replaced {
			attrs = append(attrs, slog.Bool("replaced", true))
		}
	case event.Drop != nil:
		attrs = append(attrs,
			slog.String("msg_type", event.Drop.MsgType),
			slog.String("reason", event.Drop.Reason),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
