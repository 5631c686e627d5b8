package log

import (
	"errors"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	SessionID string
	CommID    string
	Direction *Direction
	Layer     *Layer
	Category  *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time
}

// Match reports whether ev passes every set criterion.
func (f Filter) Match(ev Event) bool {
	checks := [...]bool{
		f.SessionID == "" || ev.SessionID == f.SessionID,
		f.CommID == "" || ev.CommID == f.CommID,
		f.Direction == nil || ev.Direction == *f.Direction,
		f.Layer == nil || ev.Layer == *f.Layer,
		f.Category == nil || ev.Category == *f.Category,
		f.TimeStart == nil || !ev.Timestamp.Before(*f.TimeStart),
		f.TimeEnd == nil || ev.Timestamp.Before(*f.TimeEnd),
	}
	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

// Reader streams events from a capture file. The compression is detected
// from the file's magic bytes.
type Reader struct {
	file        *os.File
	dec         *cbor.Decoder
	filter      Filter
	compression Compression
	release     func()
}

// NewReader opens the capture at path.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens the capture at path and yields only events that
// match filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, c, release, err := newDecompressor(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{
		file:        f,
		dec:         NewDecoder(src),
		filter:      filter,
		compression: c,
		release:     release,
	}, nil
}

func (r *Reader) Compression() Compression { return r.compression }

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var ev Event
		if err := r.dec.Decode(&ev); err != nil {
			return Event{}, err
		}
		if r.filter.Match(ev) {
			return ev, nil
		}
	}
}

// Events iterates over the remaining matching events. Iteration stops
// after the first error, which is yielded with a zero Event. The end of
// the file is not an error.
func (r *Reader) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the decompressor and closes the file.
func (r *Reader) Close() error {
	r.release()
	return r.file.Close()
}
