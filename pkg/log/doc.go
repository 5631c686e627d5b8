// Package log provides structured protocol capture for comm sessions.
//
// This package defines the Logger interface and Event types for capturing
// events at multiple layers (transport, wire, router, store). It is separate
// from operational logging (slog): protocol capture provides a complete
// machine-readable trace of what the kernel sent and what the registry did
// with it.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For replay: write to a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("session.clog")
//
//	// Both: Combine fans out and skips nil loggers
//	cfg.ProtocolLogger = log.Combine(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Transport: raw frame bytes (FrameEvent)
//   - Wire: decoded comm messages with buffer digests (MessageEvent)
//   - Router: messages that were not applied (DropEvent)
//   - Store: accepted registry changes (MutationEvent)
//
// # File Format
//
// Capture files are concatenated CBOR events, optionally wrapped in a
// single zstd or LZ4 frame. Readers detect the compression from the file's
// magic bytes. The commsync-log tool views and summarizes captures.
package log
