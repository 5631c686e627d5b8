package subscription

import "sync/atomic"

// Scope identifies which tier a subscription is registered at.
type Scope uint8

const (
	// ScopeRegistry receives every change.
	ScopeRegistry Scope = iota

	// ScopeModel receives changes to a single model.
	ScopeModel

	// ScopeKey receives updates naming a single key of a single model.
	ScopeKey
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeRegistry:
		return "REGISTRY"
	case ScopeModel:
		return "MODEL"
	case ScopeKey:
		return "KEY"
	default:
		return "UNKNOWN"
	}
}

// ChangeKind classifies a registry mutation.
type ChangeKind uint8

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDestroyed
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "CREATED"
	case ChangeUpdated:
		return "UPDATED"
	case ChangeDestroyed:
		return "DESTROYED"
	default:
		return "UNKNOWN"
	}
}

// Change describes one accepted mutation.
type Change struct {
	// ModelID is the model that changed.
	ModelID string

	// Kind is the mutation type.
	Kind ChangeKind

	// Keys lists the top-level keys named by an update patch, in patch order.
	// Empty for create and destroy.
	Keys []string

	// Version is the snapshot version published by the mutation.
	Version uint64
}

// Callback receives change notifications.
type Callback func(Change)

// Subscription is a registered callback.
type Subscription struct {
	// ID is unique within a hub.
	ID uint64

	// Scope is the tier the subscription belongs to.
	Scope Scope

	// ModelID is set for model and key scopes.
	ModelID string

	// Key is set for key scope.
	Key string

	callback Callback
	active   atomic.Bool
}

func newSubscription(id uint64, scope Scope, modelID, key string, fn Callback) *Subscription {
	sub := &Subscription{
		ID:       id,
		Scope:    scope,
		ModelID:  modelID,
		Key:      key,
		callback: fn,
	}
	sub.active.Store(true)
	return sub
}

// Deactivate marks the subscription as inactive.
func (s *Subscription) Deactivate() {
	s.active.Store(false)
}

// deliver invokes the callback unless the subscription was deactivated.
func (s *Subscription) deliver(c Change) {
	if !s.active.Load() {
		return
	}
	s.callback(c)
}
