package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/commsync/commsync-go/internal/script"
	"github.com/commsync/commsync-go/pkg/comm"
	"github.com/commsync/commsync-go/pkg/config"
	"github.com/commsync/commsync-go/pkg/inspect"
	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/router"
	"github.com/commsync/commsync-go/pkg/session"
	"github.com/commsync/commsync-go/pkg/transport"
	"github.com/commsync/commsync-go/pkg/value"
	"github.com/commsync/commsync-go/pkg/wire"
)

// protocolLogger builds the capture logger described by cfg. The returned
// close function flushes and closes any capture file. A nil logger means
// capture is disabled.
func protocolLogger(cfg config.CaptureConfig, compression log.Compression, logger *slog.Logger) (log.Logger, func() error, error) {
	var (
		file, console log.Logger
		closer        = func() error { return nil }
	)

	if cfg.Path != "" {
		fl, err := log.NewCompressedFileLogger(cfg.Path, compression)
		if err != nil {
			return nil, nil, fmt.Errorf("open capture file: %w", err)
		}
		file, closer = fl, fl.Close
	}
	if cfg.Console && logger != nil {
		console = log.NewSlogAdapter(logger)
	}
	return log.Combine(file, console), closer, nil
}

// frameOptions configures the framing of streams and outbound files.
// Frames are captured when logger is set.
type frameOptions struct {
	encoding  transport.Encoding
	maxSize   uint32
	logger    log.Logger
	sessionID string
}

// outboundSender returns where kernel-bound messages go. With a path they
// are framed into that file; otherwise each is printed to w as one JSON
// line.
func outboundSender(path string, opts frameOptions, w io.Writer) (comm.Sender, func() error, error) {
	if path == "" {
		return &printSender{w: w}, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open outbound file: %w", err)
	}
	fw := transport.NewFrameWriterWithMaxSize(f, opts.maxSize)
	if opts.logger != nil {
		fw.SetLogger(opts.logger, opts.sessionID)
	}
	return transport.NewMessageWriter(fw, opts.encoding), f.Close, nil
}

// printSender writes outbound messages as JSON lines. Buffers are reported
// by size only.
type printSender struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printSender) Send(_ context.Context, msg *wire.Message) error {
	data, err := wire.EncodeJSON(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.w, "OUT %s\n", data); err != nil {
		return err
	}
	for i, b := range msg.Buffers {
		fmt.Fprintf(p.w, "    buffer[%d]: %d bytes\n", i, len(b))
	}
	return nil
}

// replayScript feeds every message of the script at path to sess. Dropped
// messages are logged at debug level and do not stop the replay.
func replayScript(sess *session.Session, path string, logger *slog.Logger) (applied int, err error) {
	s, err := script.ReadFile(path)
	if err != nil {
		return 0, err
	}

	for _, msg := range s.Messages {
		res := sess.HandleMessage(msg)
		if res.Applied() {
			applied++
			continue
		}
		logger.Debug("replayScript: message dropped",
			"script", s.Name,
			"msgID", msg.Header.MsgID,
			"msgType", msg.MsgType(),
			"reason", res.Reason)
	}
	logger.Info("Script replayed", "script", s.Name, "messages", len(s.Messages), "applied", applied)
	return applied, nil
}

// openStream opens a framed message stream. "-" reads stdin.
func openStream(path string, stdin io.Reader, opts frameOptions) (*transport.MessageReader, func() error, error) {
	r, closer := stdin, func() error { return nil }
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open stream: %w", err)
		}
		r, closer = f, f.Close
	}

	fr := transport.NewFrameReaderWithMaxSize(r, opts.maxSize)
	if opts.logger != nil {
		fr.SetLogger(opts.logger, opts.sessionID)
	}
	return transport.NewMessageReader(fr, opts.encoding), closer, nil
}

// customPrinter reports custom messages from the kernel.
func customPrinter(logger *slog.Logger) router.CustomHandler {
	return func(commID string, content value.Value, buffers [][]byte) {
		data, err := json.Marshal(content)
		if err != nil {
			data = []byte(content.Kind().String())
		}
		logger.Info("Custom message", "commID", commID, "content", string(data), "buffers", len(buffers))
	}
}

// snapshotEntry is one model in JSON snapshot output.
type snapshotEntry struct {
	ID    string     `json:"id"`
	State *value.Map `json:"state"`
}

// snapshotDocument is the JSON snapshot output.
type snapshotDocument struct {
	Version uint64          `json:"version"`
	Models  []snapshotEntry `json:"models"`
}

// writeSnapshot prints every model of snap. JSON output writes binary
// values as null.
func writeSnapshot(w io.Writer, models model.Reader, asJSON bool) error {
	snap := models.Snapshot()

	if asJSON {
		doc := snapshotDocument{Version: snap.Version(), Models: make([]snapshotEntry, 0, snap.Len())}
		snap.Range(func(m *model.Model) bool {
			doc.Models = append(doc.Models, snapshotEntry{ID: m.ID, State: m.State()})
			return true
		})
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	f := inspect.NewFormatter()
	insp := inspect.NewInspector(models)
	fmt.Fprintf(w, "Registry v%d (%d models)\n", snap.Version(), snap.Len())
	fmt.Fprint(w, f.FormatModelTable(insp.List()))

	var errs []error
	for _, id := range snap.IDs() {
		info, err := insp.InspectModel(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, f.FormatModel(info))
	}
	return errors.Join(errs...)
}
