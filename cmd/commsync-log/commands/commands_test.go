package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/commsync/commsync-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	return []log.Event{
		{
			Timestamp: base, SessionID: "sess-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerWire, Category: log.CategoryMessage, CommID: "img",
			Message: &log.MessageEvent{
				MsgID: "m1", MsgType: "comm_open", Keys: []string{"_model_name", "value"},
				BufferPaths: []string{"value"}, BufferSizes: []int{3},
				BufferDigests: [][]byte{log.DigestBuffer([]byte("PNG"))},
			},
		},
		{
			Timestamp: base.Add(time.Millisecond), SessionID: "sess-aaaa-1111",
			Layer: log.LayerStore, Category: log.CategoryMutation, CommID: "img",
			Mutation: &log.MutationEvent{Op: log.MutationCreate, ModelID: "img", ModelName: "ImageModel", Version: 1, Buffers: 1},
		},
		{
			Timestamp: base.Add(time.Second), SessionID: "sess-aaaa-1111",
			Layer: log.LayerStore, Category: log.CategoryMutation, CommID: "img",
			Mutation: &log.MutationEvent{Op: log.MutationUpdate, ModelID: "img", Keys: []string{"width"}, Version: 2},
		},
		{
			Timestamp: base.Add(2 * time.Second), SessionID: "sess-aaaa-1111",
			Layer: log.LayerRouter, Category: log.CategoryDrop, CommID: "ghost",
			Drop: &log.DropEvent{MsgType: "comm_msg", Reason: "unknown model"},
		},
		{
			Timestamp: base.Add(3 * time.Second), SessionID: "sess-bbbb-2222", Direction: log.DirectionOut,
			Layer: log.LayerWire, Category: log.CategoryMessage, CommID: "img",
			Message: &log.MessageEvent{MsgID: "m2", MsgType: "comm_msg", Method: "update", Keys: []string{"width"}},
		},
		{
			Timestamp: base.Add(4 * time.Second), SessionID: "sess-bbbb-2222",
			Layer: log.LayerWire, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerWire, Message: "bad frame", Context: "decode inbound message"},
		},
	}
}

func TestFormatMessageEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:00:00.000000Z",
		"[session:sess-aaa]",
		"IN  WIRE comm_open comm=img",
		"Keys: _model_name, value",
		"Buffer[0]: value 3 bytes blake3:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestFormatOtherEvents(t *testing.T) {
	events := sampleEvents()
	tests := []struct {
		event log.Event
		want  []string
	}{
		{events[1], []string{"STORE CREATE", "Model: ImageModel", "Version: 1", "Buffers: 1"}},
		{events[3], []string{"Drop comm_msg", "Reason: unknown model"}},
		{events[4], []string{"OUT WIRE comm_msg/update"}},
		{events[5], []string{"Error", "Message: bad frame", "Context: decode inbound message"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		formatEvent(&buf, tt.event)
		for _, want := range tt.want {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in output:\n%s", want, buf.String())
			}
		}
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	store := log.LayerStore

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Layer: &store}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	if got := strings.Count(buf.String(), "[session:"); got != 2 {
		t.Errorf("expected 2 events, got %d:\n%s", got, buf.String())
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("ROUTER"); err != nil || l != log.LayerRouter {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("service"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag = %v, %v", d, err)
	}
	if c, err := ParseCategoryFlag("mutation"); err != nil || c != log.CategoryMutation {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first["CommID"] != "img" {
		t.Errorf("CommID = %v", first["CommID"])
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("expected header + 6 rows, got %d", len(rows))
	}
	if rows[2][6] != "CREATE" || rows[2][8] != "v1" {
		t.Errorf("mutation row = %v", rows[2])
	}
	if rows[4][8] != "unknown model" {
		t.Errorf("drop row = %v", rows[4])
	}
}

func TestExportCSVEmptyCapture(t *testing.T) {
	path := createTestLogFile(t, nil)
	out := filepath.Join(t.TempDir(), "empty.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != strings.Join(csvColumns, ",") {
		t.Errorf("output = %q, want header only", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "x")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFilterToCompressedFile(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.clog")

	var status bytes.Buffer
	err := RunFilter(path, FilterOptions{
		Output:      out,
		Compression: "zstd",
		CommID:      "img",
		TimeEnd:     "2026-01-28T10:00:02Z",
	}, &status)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if !strings.Contains(status.String(), "Filtered 3 events") {
		t.Errorf("status = %q", status.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()
	if reader.Compression() != log.CompressionZstd {
		t.Errorf("compression = %s", reader.Compression())
	}
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.CommID != "img" {
			t.Errorf("unexpected comm %s", event.CommID)
		}
		count++
	}
	if count != 3 {
		t.Errorf("expected 3 events, got %d", count)
	}
}

func TestFilterRejectsBadOptions(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.clog")

	for _, opts := range []FilterOptions{
		{Output: out, TimeStart: "yesterday"},
		{Output: out, Layer: "service"},
		{Output: out, Compression: "gzip"},
	} {
		if err := RunFilter(path, opts, io.Discard); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Compression: none",
		"Total Events: 6",
		"WIRE:",
		"STORE:",
		"ROUTER:",
		"MUTATION:",
		"Buffer Bytes: 3",
		"Sessions: 2",
		"[sess-aaa] 4 events",
		"ImageModel",
		"created=1 updated=1 deleted=0 version=2",
		"unknown model:",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsMissingFile(t *testing.T) {
	if err := RunStats(filepath.Join(t.TempDir(), "missing.clog"), io.Discard); err == nil {
		t.Error("expected error for missing file")
	}
}
