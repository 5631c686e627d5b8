package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/commsync/commsync-go/pkg/log"
)

// eventSink receives exported events in order. flush is called once after
// the last event.
type eventSink interface {
	write(ev log.Event) error
	flush() error
}

var exportFormats = map[string]func(io.Writer) eventSink{
	"jsonl": newJSONLSink,
	"csv":   newCSVSink,
}

// RunExport converts the capture at path to format, writing to output or
// stdout when output is empty.
func RunExport(path, format, output string) error {
	newSink, ok := exportFormats[format]
	if !ok {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	sink := newSink(w)
	for ev, err := range reader.Events() {
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := sink.write(ev); err != nil {
			return fmt.Errorf("export %s: %w", format, err)
		}
	}
	return sink.flush()
}

type jsonlSink struct{ enc *json.Encoder }

func newJSONLSink(w io.Writer) eventSink { return jsonlSink{enc: json.NewEncoder(w)} }

func (s jsonlSink) write(ev log.Event) error { return s.enc.Encode(ev) }
func (jsonlSink) flush() error { return nil }

var csvColumns = []string{"timestamp", "session_id", "direction", "layer", "category", "comm_id", "type", "keys", "detail"}

type csvSink struct {
	cw     *csv.Writer
	header bool
}

func newCSVSink(w io.Writer) eventSink { return &csvSink{cw: csv.NewWriter(w)} }

func (s *csvSink) write(ev log.Event) error {
	if !s.header {
		if err := s.cw.Write(csvColumns); err != nil {
			return err
		}
		s.header = true
	}
	keys, detail := csvDetail(ev)
	return s.cw.Write([]string{
		ev.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		ev.SessionID,
		ev.Direction.String(),
		ev.Layer.String(),
		ev.Category.String(),
		ev.CommID,
		eventLabel(ev),
		strings.Join(keys, " "),
		detail,
	})
}

func (s *csvSink) flush() error {
	if !s.header {
		if err := s.cw.Write(csvColumns); err != nil {
			return err
		}
	}
	s.cw.Flush()
	return s.cw.Error()
}

// csvDetail picks the keys and the one-field summary of ev's payload.
func csvDetail(ev log.Event) (keys []string, detail string) {
	switch {
	case ev.Message != nil:
		return ev.Message.Keys, ev.Message.MsgID
	case ev.Mutation != nil:
		return ev.Mutation.Keys, "v" + strconv.FormatUint(ev.Mutation.Version, 10)
	case ev.Drop != nil:
		return nil, ev.Drop.Reason
	case ev.Error != nil:
		return nil, ev.Error.Message
	case ev.Frame != nil:
		return nil, strconv.Itoa(ev.Frame.Size)
	}
	return nil, ""
}
