// Command commsync-replay rebuilds a widget registry from recorded comm
// traffic and lets you browse it.
//
// Inbound messages come from JSONC scripts (--script, repeatable) and from
// a framed message stream (--stream, "-" for stdin). They are applied in
// that order. Afterwards the registry is printed, or browsed in an
// interactive shell with --interactive.
//
// Kernel-bound messages (shell "set" and "send", and comm_close on
// --close-comms) are printed as JSON lines, or framed into --out.
//
// Usage:
//
//	commsync-replay [flags]
//
// Examples:
//
//	# Rebuild the registry from a script and print it
//	commsync-replay --script notebook.jsonc
//
//	# Replay a binary stream, capturing everything with zstd
//	commsync-replay --stream session.bin --capture session.clog --compression zstd
//
//	# Browse interactively while a recorded stream is applied
//	commsync-replay --stream session.bin --interactive
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/commsync/commsync-go/cmd/commsync-replay/shell"
	"github.com/commsync/commsync-go/pkg/config"
	"github.com/commsync/commsync-go/pkg/session"
)

// options holds command-line flags. Flags that are set override the
// config file.
type options struct {
	configPath  string
	scripts     []string
	stream      string
	out         string
	sessionID   string
	username    string
	encoding    string
	capture     string
	compression string
	logLevel    string
	console     bool
	interactive bool
	jsonOutput  bool
	closeComms  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*pflag.FlagSet, *options, error) {
	var opts options
	fs := pflag.NewFlagSet("commsync-replay", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, "commsync-replay - Widget registry replay\n\nUsage:\n  commsync-replay [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default $"+config.EnvVar+")")
	fs.StringArrayVarP(&opts.scripts, "script", "s", nil, "JSONC message script to replay (repeatable)")
	fs.StringVar(&opts.stream, "stream", "", `Framed message stream to replay ("-" for stdin)`)
	fs.StringVarP(&opts.out, "out", "o", "", "Write outbound messages as frames to this file")
	fs.StringVar(&opts.sessionID, "session-id", "", "Session ID (default: random UUID)")
	fs.StringVar(&opts.username, "username", "", "Username for outbound headers")
	fs.StringVar(&opts.encoding, "encoding", "", "Frame encoding: binary, cbor, json")
	fs.StringVar(&opts.capture, "capture", "", "Capture protocol events to this file")
	fs.StringVar(&opts.compression, "compression", "", "Capture compression: none, zstd, lz4")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&opts.console, "console", false, "Mirror protocol events to the log")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "Browse the registry in an interactive shell")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print the final registry as JSON")
	fs.BoolVar(&opts.closeComms, "close-comms", false, "Send comm_close for every model before exiting")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return fs, &opts, nil
}

// loadConfig loads the config file and applies explicitly set flags.
func loadConfig(fs *pflag.FlagSet, opts *options) (config.Config, error) {
	cfg, err := config.Load(config.Path(opts.configPath))
	if err != nil {
		return config.Config{}, err
	}

	if fs.Changed("session-id") {
		cfg.Session.ID = opts.sessionID
	}
	if fs.Changed("username") {
		cfg.Session.Username = opts.username
	}
	if fs.Changed("encoding") {
		cfg.Transport.Encoding = opts.encoding
	}
	if fs.Changed("capture") {
		cfg.Capture.Path = opts.capture
	}
	if fs.Changed("compression") {
		cfg.Capture.Compression = opts.compression
	}
	if fs.Changed("console") {
		cfg.Capture.Console = opts.console
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(fs, opts)
	if err != nil {
		return err
	}
	if len(opts.scripts) == 0 && opts.stream == "" && !opts.interactive {
		fs.Usage()
		return errors.New("nothing to replay: use --script, --stream or --interactive")
	}
	if opts.interactive && opts.stream == "-" {
		return errors.New("--stream - cannot be combined with --interactive")
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	plog, closeCapture, err := protocolLogger(cfg.Capture, cfg.Compression(), logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	if cfg.Session.ID == "" {
		cfg.Session.ID = uuid.NewString()
	}
	frames := frameOptions{
		encoding:  cfg.Encoding(),
		maxSize:   cfg.Transport.MaxMessageSize,
		logger:    plog,
		sessionID: cfg.Session.ID,
	}

	sender, closeOut, err := outboundSender(opts.out, frames, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	sess := session.New(session.Config{
		ID:             cfg.Session.ID,
		Username:       cfg.Session.Username,
		Sender:         sender,
		OnCustom:       customPrinter(logger),
		Logger:         logger,
		ProtocolLogger: plog,
	})
	logger.Info("Session started",
		"sessionID", sess.ID(),
		"encoding", cfg.Encoding(),
		"capture", cfg.Capture.Path)

	for _, path := range opts.scripts {
		if _, err := replayScript(sess, path, logger); err != nil {
			return err
		}
	}

	if opts.interactive {
		err = runInteractive(ctx, sess, opts.stream, frames, stdin, logger)
	} else {
		err = replayStream(ctx, sess, opts.stream, frames, stdin)
		if err == nil {
			err = writeSnapshot(stdout, sess.Models(), opts.jsonOutput)
		}
	}

	if opts.closeComms {
		err = errors.Join(err, sess.Close(ctx))
	}
	return err
}

func replayStream(ctx context.Context, sess *session.Session, path string, frames frameOptions, stdin io.Reader) error {
	if path == "" {
		return nil
	}
	src, closeStream, err := openStream(path, stdin, frames)
	if err != nil {
		return err
	}
	defer closeStream()

	if err := sess.Pump(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("replay stream %s: %w", path, err)
	}
	return nil
}

// runInteractive runs the shell. A stream is pumped in the background so
// watches show changes as they arrive.
func runInteractive(ctx context.Context, sess *session.Session, stream string, frames frameOptions, stdin io.Reader, logger *slog.Logger) error {
	sh, err := shell.New(sess.Models(), sess)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if stream != "" {
		go func() {
			if err := replayStream(ctx, sess, stream, frames, stdin); err != nil {
				logger.Error("Stream replay failed", "error", err)
				return
			}
			fmt.Fprintf(sh.Stdout(), "Stream finished: registry v%d\n", sess.Snapshot().Version())
		}()
	}

	sh.Run(ctx)
	return nil
}
