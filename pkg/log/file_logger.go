package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger writes protocol events to a file in CBOR format.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	file        *os.File
	compressor  writeFlusher
	encoder     *cbor.Encoder
	compression Compression
	mu          sync.Mutex
	closed      bool
}

// NewFileLogger creates a new FileLogger that writes to the specified path.
// If the file exists, new events are appended. The file is created with
// permissions 0644 if it doesn't exist.
func NewFileLogger(path string) (*FileLogger, error) {
	return NewCompressedFileLogger(path, CompressionNone)
}

// NewCompressedFileLogger creates a FileLogger whose event stream is
// compressed with c. Compressed files are truncated rather than appended,
// since the stream is a single compression frame. Events reach the disk
// on Flush or Close.
func NewCompressedFileLogger(path string, c Compression) (*FileLogger, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if c == CompressionNone {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	l := &FileLogger{file: f, compression: c}
	if c == CompressionNone {
		l.encoder = NewEncoder(f)
		return l, nil
	}

	l.compressor, err = newCompressor(f, c)
	if err != nil {
		f.Close()
		return nil, err
	}
	l.encoder = NewEncoder(l.compressor)
	return l, nil
}

// Compression returns the compression the logger writes with.
func (l *FileLogger) Compression() Compression {
	return l.compression
}

// Log writes an event to the log file.
// This method is safe for concurrent use.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	// Ignore encoding errors - logging should not disrupt the application
	_ = l.encoder.Encode(event)
}

// Flush pushes buffered compressed data to the file.
func (l *FileLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.compressor == nil {
		return nil
	}
	if err := l.compressor.Flush(); err != nil {
		return fmt.Errorf("flush %s stream: %w", l.compression, err)
	}
	return nil
}

// Close closes the log file.
// It is safe to call Close multiple times.
// After Close is called, subsequent Log calls are silently ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.compressor != nil {
		if err := l.compressor.Close(); err != nil {
			l.file.Close()
			return fmt.Errorf("close %s stream: %w", l.compression, err)
		}
	}
	return l.file.Close()
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
