package model

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/subscription"
	"github.com/commsync/commsync-go/pkg/value"
)

// Reader is the read and subscribe surface of a Store.
type Reader interface {
	// GetModel returns the current model with id.
	GetModel(id string) (*Model, bool)

	// Snapshot returns the current registry snapshot.
	Snapshot() *Snapshot

	// Subscribe registers fn for every accepted mutation.
	Subscribe(fn subscription.Callback) (unsubscribe func())

	// SubscribeToModel registers fn for changes to the model with id.
	SubscribeToModel(id string, fn subscription.Callback) (unsubscribe func())

	// SubscribeToKey registers fn for updates naming key on the model with id.
	SubscribeToKey(id, key string, fn subscription.Callback) (unsubscribe func())
}

// Store owns the model registry and its subscription hub.
//
// Mutations are expected from a single goroutine (the message router).
// Reads and subscriptions are safe from any goroutine.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	hub      *subscription.Hub

	logger         *slog.Logger
	protocolLogger log.Logger
	sessionID      string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		snapshot: emptySnapshot(),
		hub:      subscription.NewHub(),
	}
}

// SetLogger sets the operational logger. If nil, logging is disabled.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetProtocolLogger sets the protocol logger and session ID. Every accepted
// mutation is recorded as a MutationEvent.
func (s *Store) SetProtocolLogger(logger log.Logger, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocolLogger = logger
	s.sessionID = sessionID
}

// GetModel returns the current model with id.
func (s *Store) GetModel(id string) (*Model, bool) {
	return s.Snapshot().GetModel(id)
}

// Snapshot returns the current snapshot. The same pointer is returned until
// the next accepted mutation.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// CreateModel registers a model built from a copy of state with buffers
// spliced in at bufferPaths. A live model with the same id is replaced and
// a single creation is signalled.
func (s *Store) CreateModel(id string, state *value.Map, buffers [][]byte, bufferPaths []bufferpath.Path) *Model {
	tree := bufferpath.ApplyPaths(state.Clone(), bufferPaths, cloneBuffers(buffers))
	m := newModel(id, tree)

	s.mu.Lock()
	_, replaced := s.snapshot.models[id]
	next := s.snapshot.with(m, replaced)
	s.snapshot = next
	logger, plog, sessionID := s.loggers()
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("CreateModel: model registered",
			"modelID", id,
			"modelName", m.TypeName,
			"replaced", replaced,
			"version", next.version)
	}
	if plog != nil {
		plog.Log(mutationEvent(sessionID, &log.MutationEvent{
			Op:        log.MutationCreate,
			ModelID:   id,
			ModelName: m.TypeName,
			Version:   next.version,
			Replaced:  replaced,
			Buffers:   min(len(buffers), len(bufferPaths)),
		}))
	}

	s.hub.Notify(subscription.Change{
		ModelID: id,
		Kind:    subscription.ChangeCreated,
		Version: next.version,
	})
	return m
}

// UpdateModel shallow-merges a copy of patch, with buffers spliced in, into
// the model's top-level state. Unknown ids are ignored and report false.
func (s *Store) UpdateModel(id string, patch *value.Map, buffers [][]byte, bufferPaths []bufferpath.Path) (*Model, bool) {
	tree := bufferpath.ApplyPaths(patch.Clone(), bufferPaths, cloneBuffers(buffers))
	keys := tree.Keys()

	s.mu.Lock()
	current, exists := s.snapshot.models[id]
	if !exists {
		logger := s.logger
		s.mu.Unlock()
		if logger != nil {
			logger.Debug("UpdateModel: unknown model ignored", "modelID", id)
		}
		return nil, false
	}
	m := current.withState(current.state.Merge(tree))
	next := s.snapshot.with(m, false)
	s.snapshot = next
	logger, plog, sessionID := s.loggers()
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("UpdateModel: model patched",
			"modelID", id,
			"keys", keys,
			"version", next.version)
	}
	if plog != nil {
		plog.Log(mutationEvent(sessionID, &log.MutationEvent{
			Op:        log.MutationUpdate,
			ModelID:   id,
			ModelName: m.TypeName,
			Keys:      keys,
			Version:   next.version,
			Buffers:   min(len(buffers), len(bufferPaths)),
		}))
	}

	s.hub.Notify(subscription.Change{
		ModelID: id,
		Kind:    subscription.ChangeUpdated,
		Keys:    keys,
		Version: next.version,
	})
	return m, true
}

// DeleteModel removes the model with id. Unknown ids are ignored and
// report false. Key-level subscribers are not signalled.
func (s *Store) DeleteModel(id string) bool {
	s.mu.Lock()
	current, exists := s.snapshot.models[id]
	if !exists {
		s.mu.Unlock()
		return false
	}
	next := s.snapshot.without(id)
	s.snapshot = next
	logger, plog, sessionID := s.loggers()
	s.mu.Unlock()

	if logger != nil {
		logger.Debug("DeleteModel: model removed", "modelID", id, "version", next.version)
	}
	if plog != nil {
		plog.Log(mutationEvent(sessionID, &log.MutationEvent{
			Op:        log.MutationDelete,
			ModelID:   id,
			ModelName: current.TypeName,
			Version:   next.version,
		}))
	}

	s.hub.Notify(subscription.Change{
		ModelID: id,
		Kind:    subscription.ChangeDestroyed,
		Version: next.version,
	})
	return true
}

// Subscribe registers fn for every accepted mutation.
func (s *Store) Subscribe(fn subscription.Callback) func() {
	return s.hub.Subscribe(fn)
}

// SubscribeToModel registers fn for changes to the model with id,
// including its creation and destruction.
func (s *Store) SubscribeToModel(id string, fn subscription.Callback) func() {
	return s.hub.SubscribeToModel(id, fn)
}

// SubscribeToKey registers fn for updates naming key on the model with id.
func (s *Store) SubscribeToKey(id, key string, fn subscription.Callback) func() {
	return s.hub.SubscribeToKey(id, key, fn)
}

// SubscriberCount returns the number of registered subscriptions.
func (s *Store) SubscriberCount() int {
	return s.hub.Count()
}

// ClearSubscriptions drops every subscription. Callbacks that are mid
// delivery finish, but none run afterwards.
func (s *Store) ClearSubscriptions() {
	s.hub.Clear()
}

// loggers must be called with s.mu held.
func (s *Store) loggers() (*slog.Logger, log.Logger, string) {
	return s.logger, s.protocolLogger, s.sessionID
}

func mutationEvent(sessionID string, m *log.MutationEvent) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerStore,
		Category:  log.CategoryMutation,
		CommID:    m.ModelID,
		Mutation:  m,
	}
}

func cloneBuffers(buffers [][]byte) [][]byte {
	if buffers == nil {
		return nil
	}
	out := make([][]byte, len(buffers))
	for i, b := range buffers {
		out[i] = bytes.Clone(b)
	}
	return out
}

// Compile-time interface satisfaction check.
var _ Reader = (*Store)(nil)
