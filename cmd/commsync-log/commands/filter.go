package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/commsync/commsync-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output      string
	Compression string
	SessionID   string
	CommID      string
	TimeStart   string
	TimeEnd     string
	Layer       string
	Direction   string
	Category    string
}

// optional parses s with parse unless it is empty.
func optional[T any](s string, parse func(string) (T, error)) (*T, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC 3339): %w", s, err)
	}
	return t, nil
}

func (opts FilterOptions) build() (log.Filter, error) {
	f := log.Filter{SessionID: opts.SessionID, CommID: opts.CommID}
	var err error
	if f.TimeStart, err = optional(opts.TimeStart, parseTime); err != nil {
		return f, fmt.Errorf("time-start: %w", err)
	}
	if f.TimeEnd, err = optional(opts.TimeEnd, parseTime); err != nil {
		return f, fmt.Errorf("time-end: %w", err)
	}
	if f.Layer, err = optional(opts.Layer, ParseLayerFlag); err != nil {
		return f, err
	}
	if f.Direction, err = optional(opts.Direction, ParseDirectionFlag); err != nil {
		return f, err
	}
	if f.Category, err = optional(opts.Category, ParseCategoryFlag); err != nil {
		return f, err
	}
	return f, nil
}

// RunFilter copies the events of path that match opts into opts.Output,
// recompressing them with opts.Compression.
func RunFilter(path string, opts FilterOptions, status io.Writer) error {
	filter, err := opts.build()
	if err != nil {
		return err
	}
	compression, err := log.ParseCompression(opts.Compression)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer reader.Close()

	out, err := log.NewCompressedFileLogger(opts.Output, compression)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	count := 0
	for ev, err := range reader.Events() {
		if err != nil {
			out.Close()
			return fmt.Errorf("read event: %w", err)
		}
		out.Log(ev)
		count++
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	fmt.Fprintf(status, "Filtered %d events to %s (%s)\n", count, opts.Output, compression)
	return nil
}
