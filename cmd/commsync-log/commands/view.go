// Package commands implements the commsync-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/commsync/commsync-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	CommID    string
	Layer     *log.Layer
	Direction *log.Direction
	Category  *log.Category
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{
		CommID:    f.CommID,
		Layer:     f.Layer,
		Direction: f.Direction,
		Category:  f.Category,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] DIRECTION LAYER label
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenID(event.SessionID)
	dir := event.Direction.String()

	fmt.Fprintf(w, "%s [session:%s] %-3s %s %s", ts, sessionID, dir, event.Layer.String(), eventLabel(event))
	if event.CommID != "" {
		fmt.Fprintf(w, " comm=%s", event.CommID)
	}
	fmt.Fprintln(w)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Mutation != nil:
		formatMutationDetails(w, event.Mutation)
	case event.Drop != nil:
		fmt.Fprintf(w, "  Reason: %s\n", event.Drop.Reason)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// eventLabel names the event for the header line.
func eventLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		if event.Message.Method != "" {
			return event.Message.MsgType + "/" + event.Message.Method
		}
		return event.Message.MsgType
	case event.Mutation != nil:
		return event.Mutation.Op.String()
	case event.Drop != nil:
		return "Drop " + event.Drop.MsgType
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of an id.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.MsgID != "" {
		fmt.Fprintf(w, "  MsgID: %s\n", msg.MsgID)
	}
	if msg.TargetName != "" {
		fmt.Fprintf(w, "  Target: %s\n", msg.TargetName)
	}
	if len(msg.Keys) > 0 {
		fmt.Fprintf(w, "  Keys: %s\n", strings.Join(msg.Keys, ", "))
	}
	for i, size := range msg.BufferSizes {
		path := "?"
		if i < len(msg.BufferPaths) {
			path = msg.BufferPaths[i]
		}
		digest := ""
		if i < len(msg.BufferDigests) {
			digest = " blake3:" + log.ShortDigest(msg.BufferDigests[i])
		}
		fmt.Fprintf(w, "  Buffer[%d]: %s %d bytes%s\n", i, path, size, digest)
	}
	if len(msg.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", msg.Data)
		if msg.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMutationDetails(w io.Writer, m *log.MutationEvent) {
	if m.ModelName != "" {
		fmt.Fprintf(w, "  Model: %s\n", m.ModelName)
	}
	fmt.Fprintf(w, "  Version: %d\n", m.Version)
	if len(m.Keys) > 0 {
		fmt.Fprintf(w, "  Keys: %s\n", strings.Join(m.Keys, ", "))
	}
	if m.Buffers > 0 {
		fmt.Fprintf(w, "  Buffers: %d\n", m.Buffers)
	}
	if m.Replaced {
		fmt.Fprintln(w, "  Replaced existing model")
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "wire":
		return log.LayerWire, nil
	case "router":
		return log.LayerRouter, nil
	case "store":
		return log.LayerStore, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport, wire, router, or store)", s)
	}
}

// ParseDirectionFlag parses a direction string (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "mutation":
		return log.CategoryMutation, nil
	case "drop":
		return log.CategoryDrop, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, mutation, drop, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
