// Package config loads commsync settings from YAML.
//
// A file is selected with the --config flag or the COMMSYNC_CONFIG
// environment variable. Fields missing from the file keep their defaults.
//
//	session:
//	  username: alice
//	transport:
//	  encoding: binary
//	  max_message_size: 16777216
//	capture:
//	  path: session.clog
//	  compression: zstd
//	log:
//	  level: debug
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/transport"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "COMMSYNC_CONFIG"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete commsync configuration.
type Config struct {
	Session   SessionConfig   `yaml:"session"`
	Transport TransportConfig `yaml:"transport"`
	Capture   CaptureConfig   `yaml:"capture"`
	Log       LogConfig       `yaml:"log"`
}

// SessionConfig configures session identity.
type SessionConfig struct {
	// ID is fixed when set; otherwise each session gets a random UUID.
	ID       string `yaml:"id"`
	Username string `yaml:"username"`
}

// TransportConfig configures message framing.
type TransportConfig struct {
	// Encoding is binary, cbor or json.
	Encoding       string `yaml:"encoding"`
	MaxMessageSize uint32 `yaml:"max_message_size"`
}

// CaptureConfig configures protocol capture.
type CaptureConfig struct {
	// Path enables file capture when non-empty.
	Path string `yaml:"path"`

	// Compression is none, zstd or lz4.
	Compression string `yaml:"compression"`

	// Console mirrors capture events to the operational logger.
	Console bool `yaml:"console"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
}

// LoadError reports a config file that could not be read or parsed.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return e.File + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Session: SessionConfig{Username: "commsync"},
		Transport: TransportConfig{
			Encoding:       transport.EncodingBinary.String(),
			MaxMessageSize: transport.DefaultMaxMessageSize,
		},
		Capture: CaptureConfig{Compression: log.CompressionNone.String()},
		Log:     LogConfig{Level: "info"},
	}
}

// Path returns flagValue if set, else the value of EnvVar.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvVar)
}

// Load reads the file at path over the defaults and validates the result.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, &LoadError{File: path, Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Unknown fields are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks enumerated fields and limits.
func (c Config) Validate() error {
	var errs []error
	if _, err := transport.ParseEncoding(c.Transport.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("%w: transport.encoding: %w", ErrInvalid, err))
	}
	if c.Transport.MaxMessageSize == 0 {
		errs = append(errs, fmt.Errorf("%w: transport.max_message_size must be positive", ErrInvalid))
	}
	if _, err := log.ParseCompression(c.Capture.Compression); err != nil {
		errs = append(errs, fmt.Errorf("%w: capture.compression: %w", ErrInvalid, err))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// Encoding returns the configured transport encoding.
func (c Config) Encoding() transport.Encoding {
	enc, _ := transport.ParseEncoding(c.Transport.Encoding)
	return enc
}

// Compression returns the configured capture compression.
func (c Config) Compression() log.Compression {
	comp, _ := log.ParseCompression(c.Capture.Compression)
	return comp
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel parses a log level name (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level: %q (use debug, info, warn, error)", s)
	}
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
