package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/comm"
	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/router"
	"github.com/commsync/commsync-go/pkg/transport"
	"github.com/commsync/commsync-go/pkg/value"
	"github.com/commsync/commsync-go/pkg/wire"
)

// Session errors.
var (
	ErrUnknownComm = errors.New("unknown comm")
	ErrNoSender    = errors.New("session has no sender")
	ErrClosed      = errors.New("session closed")
)

// Config configures a Session.
type Config struct {
	// ID identifies the session in headers and capture files.
	// A random UUID is used if empty.
	ID string

	// Username fills outbound message headers.
	Username string

	// Sender delivers outbound messages. Without one, outbound calls
	// return ErrNoSender.
	Sender comm.Sender

	// OnCustom receives custom comm messages from the kernel.
	OnCustom router.CustomHandler

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures messages, drops and mutations.
	// If nil, capture is disabled.
	ProtocolLogger log.Logger
}

// Source yields inbound messages. transport.MessageReader implements it.
type Source interface {
	Next(ctx context.Context) (*wire.Message, error)
}

// Session is the registry and comm set for one kernel connection.
type Session struct {
	id       string
	username string
	store    *model.Store
	router   *router.Router
	sender   comm.Sender

	logger         *slog.Logger
	protocolLogger log.Logger

	mu     sync.Mutex
	comms  map[string]*comm.Comm
	closed bool
}

// New creates a session.
func New(cfg Config) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	s := &Session{
		id:             cfg.ID,
		username:       cfg.Username,
		store:          model.NewStore(),
		logger:         cfg.Logger,
		protocolLogger: cfg.ProtocolLogger,
		comms:          make(map[string]*comm.Comm),
	}
	if cfg.Sender != nil {
		s.sender = &capturingSender{next: cfg.Sender, session: s}
	}

	s.router = router.New(s.store)
	s.router.SetCustomHandler(cfg.OnCustom)

	if cfg.Logger != nil {
		s.store.SetLogger(cfg.Logger)
		s.router.SetLogger(cfg.Logger)
	}
	if cfg.ProtocolLogger != nil {
		s.store.SetProtocolLogger(cfg.ProtocolLogger, cfg.ID)
		s.router.SetProtocolLogger(cfg.ProtocolLogger, cfg.ID)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Models returns the read and subscribe view of the registry.
func (s *Session) Models() model.Reader {
	return s.store
}

// Snapshot returns the current registry snapshot.
func (s *Session) Snapshot() *model.Snapshot {
	return s.store.Snapshot()
}

// HandleMessage applies one inbound message and keeps the comm set in step
// with the registry.
func (s *Session) HandleMessage(msg *wire.Message) router.Result {
	if msg != nil && s.protocolLogger != nil {
		s.protocolLogger.Log(log.MessageCaptured(s.id, log.DirectionIn, msg))
	}

	res := s.router.Route(msg)

	switch res.Action {
	case router.ActionCreate:
		s.mu.Lock()
		s.comms[res.CommID] = comm.New(comm.Config{
			ID:       res.CommID,
			Session:  s.id,
			Username: s.username,
		}, s.commSender())
		s.mu.Unlock()
	case router.ActionDelete:
		s.mu.Lock()
		delete(s.comms, res.CommID)
		s.mu.Unlock()
	}
	return res
}

// Pump reads messages from src until it is exhausted, ctx is done or a
// read fails. Undecodable messages are logged and skipped. A clean end of
// stream returns nil.
func (s *Session) Pump(ctx context.Context, src Source) error {
	for {
		msg, err := src.Next(ctx)
		switch {
		case err == nil:
			s.HandleMessage(msg)
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, transport.ErrDecode):
			if s.logger != nil {
				s.logger.Warn("Pump: skipping undecodable message", "error", err)
			}
			if s.protocolLogger != nil {
				s.protocolLogger.Log(log.ErrorOccurred(s.id, log.LayerWire, err, "decode inbound message"))
			}
		default:
			return err
		}
	}
}

// RequestUpdate asks the kernel to apply patch to the model with id. Binary
// values anywhere in the patch are moved into buffers.
func (s *Session) RequestUpdate(ctx context.Context, id string, patch *value.Map) error {
	c, err := s.outbound(id)
	if err != nil {
		return err
	}

	tree := patch.Clone()
	paths := bufferpath.FindPaths(tree)
	buffers := bufferpath.ExtractPaths(tree, paths)

	return c.Send(ctx, &wire.Data{
		Method:      wire.MethodUpdate,
		State:       tree,
		BufferPaths: paths,
	}, buffers)
}

// SendCustom sends a custom message on the model's comm.
func (s *Session) SendCustom(ctx context.Context, id string, content value.Value, buffers [][]byte) error {
	c, err := s.outbound(id)
	if err != nil {
		return err
	}
	return c.Send(ctx, &wire.Data{
		Method:  wire.MethodCustom,
		Content: &content,
	}, buffers)
}

// Close sends comm_close on every open comm, drops every registry
// subscription and stops outbound traffic. The models themselves are left
// as they were. Close is idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	comms := make([]*comm.Comm, 0, len(s.comms))
	for _, id := range s.store.Snapshot().IDs() {
		if c, ok := s.comms[id]; ok {
			comms = append(comms, c)
		}
	}
	s.comms = make(map[string]*comm.Comm)
	s.mu.Unlock()

	subs := s.store.SubscriberCount()
	s.store.ClearSubscriptions()
	if s.logger != nil {
		s.logger.Debug("Close: subscriptions dropped", "count", subs)
	}
	if s.sender == nil {
		return nil
	}

	var errs []error
	for _, c := range comms {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.logger != nil {
		s.logger.Debug("Close: comms closed", "count", len(comms), "errors", len(errs))
	}
	return errors.Join(errs...)
}

// outbound returns the comm for id, checking the session can send.
func (s *Session) outbound(id string) (*comm.Comm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.sender == nil {
		return nil, ErrNoSender
	}
	c, ok := s.comms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComm, id)
	}
	return c, nil
}

// commSender returns the capturing sender, or one that always fails
// with ErrNoSender when none is configured.
func (s *Session) commSender() comm.Sender {
	if s.sender != nil {
		return s.sender
	}
	return comm.SenderFunc(func(context.Context, *wire.Message) error {
		return ErrNoSender
	})
}

// capturingSender records outbound messages before delivering them.
type capturingSender struct {
	next    comm.Sender
	session *Session
}

func (c *capturingSender) Send(ctx context.Context, msg *wire.Message) error {
	if plog := c.session.protocolLogger; plog != nil {
		plog.Log(log.MessageCaptured(c.session.id, log.DirectionOut, msg))
	}
	return c.next.Send(ctx, msg)
}
