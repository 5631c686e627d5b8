// Command commsync-log views and analyzes comm protocol capture files.
//
// Capture files are written by commsync-replay with --capture, or by any
// program that attaches a log.FileLogger to a session. Plain, zstd and lz4
// files are detected automatically.
//
// Usage:
//
//	commsync-log <command> [flags] <file.clog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View registry mutations only
//	commsync-log view --category mutation session.clog
//
//	# View traffic for one comm
//	commsync-log view --comm-id 4f1c session.clog
//
//	# Export to CSV
//	commsync-log export --format csv -o session.csv session.clog
//
//	# Keep one session and recompress with zstd
//	commsync-log filter --session-id abc123 --compression zstd -o small.clog session.clog
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/commsync/commsync-go/cmd/commsync-log/commands"
)

const usage = `commsync-log - Comm Protocol Log Analyzer

Usage:
  commsync-log <command> [flags] <file.clog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "commsync-log <command> --help" for more information about a command.
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return errors.New("command required")
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "view":
		return runView(args, stdout, stderr)
	case "export":
		return runExport(args, stderr)
	case "filter":
		return runFilter(args, stdout, stderr)
	case "stats":
		return runStats(args, stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// newFlagSet creates a flag set whose usage names the command.
func newFlagSet(name, summary string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "commsync-log %s - %s\n\nUsage:\n  commsync-log %s [flags] <file.clog>\n\nFlags:\n", name, summary, name)
		fs.PrintDefaults()
	}
	return fs
}

// logPath parses args and returns the single positional log path.
func logPath(fs *pflag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return "", errors.New("log file path required")
	}
	return fs.Arg(0), nil
}

func runView(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("view", "View log file in human-readable format", stderr)
	commID := fs.String("comm-id", "", "Filter by comm (model) ID")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, router, store)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, mutation, drop, error)")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}

	filter := commands.ViewFilter{CommID: *commID}
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			return err
		}
		filter.Layer = &l
	}
	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			return err
		}
		filter.Direction = &d
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}

	return commands.RunView(path, filter, stdout)
}

func runExport(args []string, stderr io.Writer) error {
	fs := newFlagSet("export", "Export log file to JSON or CSV format", stderr)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.StringP("output", "o", "", "Output file (default: stdout)")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunExport(path, *format, *output)
}

func runFilter(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("filter", "Filter log file and write to new file", stderr)
	var opts commands.FilterOptions
	fs.StringVarP(&opts.Output, "output", "o", "", "Output file (required)")
	fs.StringVar(&opts.Compression, "compression", "none", "Output compression (none, zstd, lz4)")
	fs.StringVar(&opts.SessionID, "session-id", "", "Filter by session ID")
	fs.StringVar(&opts.CommID, "comm-id", "", "Filter by comm (model) ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, router, store)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, mutation, drop, error)")

	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		fs.Usage()
		return errors.New("output file (-o) required")
	}
	return commands.RunFilter(path, opts, stdout)
}

func runStats(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("stats", "Show statistics about the log file", stderr)
	path, err := logPath(fs, args)
	if err != nil {
		return err
	}
	return commands.RunStats(path, stdout)
}
