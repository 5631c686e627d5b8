package router

import (
	"log/slog"
	"sync"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/value"
	"github.com/commsync/commsync-go/pkg/wire"
)

// Action is what the router did with a message.
type Action uint8

const (
	ActionDrop Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionCustom
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionDrop:
		return "DROP"
	case ActionCreate:
		return "CREATE"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	case ActionCustom:
		return "CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// Drop reasons.
const (
	ReasonNilMessage        = "nil message"
	ReasonMissingCommID     = "missing comm_id"
	ReasonUnknownMsgType    = "unknown msg_type"
	ReasonMissingState      = "update without state"
	ReasonUnsupportedMethod = "unsupported method"
	ReasonUnknownModel      = "unknown model"
	ReasonNoCustomHandler   = "no custom handler"
)

// Result reports the outcome of routing one message.
type Result struct {
	Action Action
	CommID string

	// Reason is set when Action is ActionDrop.
	Reason string
}

// Applied reports whether the message reached the store or custom handler.
func (r Result) Applied() bool {
	return r.Action != ActionDrop
}

// Mutator is the store surface the router writes through.
type Mutator interface {
	CreateModel(id string, state *value.Map, buffers [][]byte, bufferPaths []bufferpath.Path) *model.Model
	UpdateModel(id string, patch *value.Map, buffers [][]byte, bufferPaths []bufferpath.Path) (*model.Model, bool)
	DeleteModel(id string) bool
}

// CustomHandler receives custom comm messages. content is Null when the
// message carried none.
type CustomHandler func(commID string, content value.Value, buffers [][]byte)

// Router applies inbound messages to a Mutator.
type Router struct {
	mu     sync.RWMutex
	store  Mutator
	custom CustomHandler

	logger         *slog.Logger
	protocolLogger log.Logger
	sessionID      string
}

// New creates a router writing to store.
func New(store Mutator) *Router {
	return &Router{store: store}
}

// SetCustomHandler sets the handler for custom messages.
func (r *Router) SetCustomHandler(fn CustomHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = fn
}

// SetLogger sets the operational logger. If nil, logging is disabled.
func (r *Router) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// SetProtocolLogger sets the protocol logger used to record drops.
func (r *Router) SetProtocolLogger(logger log.Logger, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protocolLogger = logger
	r.sessionID = sessionID
}

// Route applies msg. It never fails; unusable messages are dropped.
func (r *Router) Route(msg *wire.Message) Result {
	if msg == nil {
		return Result{Reason: ReasonNilMessage}
	}

	res := r.route(msg)
	if !res.Applied() {
		r.recordDrop(msg, res.Reason)
	}
	return res
}

func (r *Router) route(msg *wire.Message) Result {
	commID := msg.CommID()
	if commID == "" {
		return Result{Reason: ReasonMissingCommID}
	}

	switch msg.MsgType() {
	case wire.MsgTypeCommOpen:
		r.store.CreateModel(commID, msg.State(), msg.Buffers, msg.BufferPaths())
		return Result{Action: ActionCreate, CommID: commID}

	case wire.MsgTypeCommMsg:
		return r.routeCommMsg(commID, msg)

	case wire.MsgTypeCommClose:
		if !r.store.DeleteModel(commID) {
			return Result{CommID: commID, Reason: ReasonUnknownModel}
		}
		return Result{Action: ActionDelete, CommID: commID}

	default:
		return Result{CommID: commID, Reason: ReasonUnknownMsgType}
	}
}

func (r *Router) routeCommMsg(commID string, msg *wire.Message) Result {
	switch msg.Method() {
	case wire.MethodUpdate:
		state := msg.State()
		if state == nil {
			return Result{CommID: commID, Reason: ReasonMissingState}
		}
		if _, ok := r.store.UpdateModel(commID, state, msg.Buffers, msg.BufferPaths()); !ok {
			return Result{CommID: commID, Reason: ReasonUnknownModel}
		}
		return Result{Action: ActionUpdate, CommID: commID}

	case wire.MethodCustom:
		r.mu.RLock()
		handler := r.custom
		r.mu.RUnlock()
		if handler == nil {
			return Result{CommID: commID, Reason: ReasonNoCustomHandler}
		}
		content := value.Null()
		if c := msg.Content.Data.Content; c != nil {
			content = *c
		}
		handler(commID, content, msg.Buffers)
		return Result{Action: ActionCustom, CommID: commID}

	default:
		return Result{CommID: commID, Reason: ReasonUnsupportedMethod}
	}
}

func (r *Router) recordDrop(msg *wire.Message, reason string) {
	r.mu.RLock()
	logger, plog, sessionID := r.logger, r.protocolLogger, r.sessionID
	r.mu.RUnlock()

	if logger != nil {
		logger.Debug("Route: message dropped",
			"msgType", msg.MsgType(),
			"commID", msg.CommID(),
			"reason", reason)
	}
	if plog != nil {
		plog.Log(log.MessageDropped(sessionID, msg, reason))
	}
}
