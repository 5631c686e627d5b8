package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testEvent(i int) Event {
	return Event{
		Timestamp: time.Now(),
		SessionID: "s1",
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryMessage,
		CommID:    fmt.Sprintf("w%d", i),
		Message:   &MessageEvent{MsgID: fmt.Sprintf("m%d", i), MsgType: "comm_open"},
	}
}

func readAll(t *testing.T, path string, filter Filter) ([]Event, Compression) {
	t.Helper()
	r, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()

	var events []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, r.Compression()
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		events = append(events, e)
	}
}

func TestFileLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.clog")

	for i := range 2 {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(testEvent(i))
		logger.Close()
	}

	events, c := readAll(t, path, Filter{})
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if c != CompressionNone {
		t.Errorf("compression = %s, want none", c)
	}
}

func TestFileLoggerCompressed(t *testing.T) {
	for _, c := range []Compression{CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "capture.clog")

			logger, err := NewCompressedFileLogger(path, c)
			if err != nil {
				t.Fatalf("NewCompressedFileLogger failed: %v", err)
			}
			if logger.Compression() != c {
				t.Errorf("Compression() = %s", logger.Compression())
			}
			for i := range 50 {
				logger.Log(testEvent(i))
			}
			if err := logger.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			events, detected := readAll(t, path, Filter{})
			if detected != c {
				t.Errorf("detected %s, want %s", detected, c)
			}
			if len(events) != 50 {
				t.Fatalf("got %d events, want 50", len(events))
			}
			if events[49].CommID != "w49" {
				t.Errorf("last CommID = %q", events[49].CommID)
			}
		})
	}
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewCompressedFileLogger(filepath.Join(t.TempDir(), "c.clog"), CompressionZstd)
	if err != nil {
		t.Fatalf("NewCompressedFileLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	logger.Log(testEvent(0))
	if err := logger.Flush(); err != nil {
		t.Errorf("Flush after Close failed: %v", err)
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.clog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				logger.Log(testEvent(g*100 + i))
			}
		}()
	}
	wg.Wait()
	logger.Close()

	events, _ := readAll(t, path, Filter{})
	if len(events) != 100 {
		t.Errorf("got %d events, want 100", len(events))
	}
}
