package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/commsync/commsync-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	Compression       log.Compression
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Models            map[string]*ModelStats
	DropsByReason     map[string]int
	BufferBytes       int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
}

// ModelStats holds registry statistics for a single comm.
type ModelStats struct {
	Name        string
	Creates     int
	Updates     int
	Deletes     int
	LastVersion uint64
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		Models:            make(map[string]*ModelStats),
		DropsByReason:     make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}

	switch {
	case event.Message != nil:
		for _, n := range event.Message.BufferSizes {
			s.BufferBytes += n
		}
	case event.Mutation != nil:
		m, ok := s.Models[event.Mutation.ModelID]
		if !ok {
			m = &ModelStats{}
			s.Models[event.Mutation.ModelID] = m
		}
		if event.Mutation.ModelName != "" {
			m.Name = event.Mutation.ModelName
		}
		switch event.Mutation.Op {
		case log.MutationCreate:
			m.Creates++
		case log.MutationUpdate:
			m.Updates++
		case log.MutationDelete:
			m.Deletes++
		}
		m.LastVersion = event.Mutation.Version
	case event.Drop != nil:
		s.DropsByReason[event.Drop.Reason]++
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	stats.Compression = reader.Compression()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Comm Protocol Log Statistics ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Compression: %s\n", stats.Compression)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerRouter, log.LayerStore} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryMutation, log.CategoryDrop, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if stats.BufferBytes > 0 {
		fmt.Fprintf(w, "Buffer Bytes: %d\n", stats.BufferBytes)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	ids := make([]string, 0, len(stats.Sessions))
	for id := range stats.Sessions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return stats.Sessions[ids[i]].FirstSeen.Before(stats.Sessions[ids[j]].FirstSeen)
	})
	for _, id := range ids {
		s := stats.Sessions[id]
		duration := s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(id), s.Events, duration)
	}

	if len(stats.Models) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Models: %d\n", len(stats.Models))
		modelIDs := make([]string, 0, len(stats.Models))
		for id := range stats.Models {
			modelIDs = append(modelIDs, id)
		}
		sort.Strings(modelIDs)
		for _, id := range modelIDs {
			m := stats.Models[id]
			name := m.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "  %-12s %-20s created=%d updated=%d deleted=%d version=%d\n",
				shortenID(id), name, m.Creates, m.Updates, m.Deletes, m.LastVersion)
		}
	}

	if len(stats.DropsByReason) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Drops by Reason:")
		reasons := make([]string, 0, len(stats.DropsByReason))
		for r := range stats.DropsByReason {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(w, "  %-24s %d\n", r+":", stats.DropsByReason[r])
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
