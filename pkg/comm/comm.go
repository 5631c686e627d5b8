// Package comm implements the client side of a comm channel opened by the
// kernel: it builds outbound comm_msg and comm_close envelopes and hands
// them to a Sender.
package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commsync/commsync-go/pkg/value"
	"github.com/commsync/commsync-go/pkg/wire"
)

// ErrClosed is returned when sending on a closed comm.
var ErrClosed = errors.New("comm closed")

// headerVersion is the messaging protocol version placed in headers.
const headerVersion = "5.3"

// Sender delivers messages to the kernel.
type Sender interface {
	Send(ctx context.Context, msg *wire.Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg *wire.Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg *wire.Message) error {
	return f(ctx, msg)
}

// Config configures a Comm.
type Config struct {
	// ID is the comm id. A random UUID is used if empty.
	ID string

	// Session and Username fill the message header.
	Session  string
	Username string
}

// Comm is one end of a comm channel.
type Comm struct {
	id       string
	session  string
	username string
	sender   Sender

	mu     sync.Mutex
	closed bool
}

// New creates a comm sending through sender.
func New(cfg Config, sender Sender) *Comm {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	return &Comm{
		id:       cfg.ID,
		session:  cfg.Session,
		username: cfg.Username,
		sender:   sender,
	}
}

// ID returns the comm id.
func (c *Comm) ID() string {
	return c.id
}

// IsClosed reports whether Close has been called.
func (c *Comm) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send sends data on the comm.
func (c *Comm) Send(ctx context.Context, data *wire.Data, buffers [][]byte) error {
	if c.IsClosed() {
		return ErrClosed
	}
	msg := c.envelope(wire.MsgTypeCommMsg)
	msg.Content.Data = data
	msg.Metadata = value.MapOf("version", wire.ProtocolVersion)
	msg.Buffers = buffers
	return c.send(ctx, msg)
}

// Close sends comm_close. Only the first call sends; later calls return nil.
func (c *Comm) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	return c.send(ctx, c.envelope(wire.MsgTypeCommClose))
}

func (c *Comm) envelope(msgType string) *wire.Message {
	return &wire.Message{
		Header: wire.Header{
			MsgID:    uuid.NewString(),
			MsgType:  msgType,
			Session:  c.session,
			Username: c.username,
			Date:     time.Now().UTC().Format(time.RFC3339Nano),
			Version:  headerVersion,
		},
		Content: wire.Content{CommID: c.id},
		Channel: "shell",
	}
}

func (c *Comm) send(ctx context.Context, msg *wire.Message) error {
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s on comm %s: %w", msg.Header.MsgType, c.id, err)
	}
	return nil
}
