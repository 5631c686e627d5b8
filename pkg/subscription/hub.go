package subscription

import (
	"slices"
	"sync"
)

// keyIndex is a composite key for the key-scope index.
type keyIndex struct {
	modelID string
	key     string
}

// Hub dispatches registry changes to subscribers.
type Hub struct {
	mu sync.RWMutex

	nextID uint64

	// Registry-scope subscribers in registration order
	global []*Subscription

	// Model-scope subscribers by model id
	byModel map[string][]*Subscription

	// Key-scope subscribers by (model id, key)
	byKey map[keyIndex][]*Subscription
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		byModel: make(map[string][]*Subscription),
		byKey:   make(map[keyIndex][]*Subscription),
	}
}

// Subscribe registers fn for every change.
func (h *Hub) Subscribe(fn Callback) (unsubscribe func()) {
	return h.add(ScopeRegistry, "", "", fn)
}

// SubscribeToModel registers fn for changes to modelID.
func (h *Hub) SubscribeToModel(modelID string, fn Callback) (unsubscribe func()) {
	return h.add(ScopeModel, modelID, "", fn)
}

// SubscribeToKey registers fn for updates of key on modelID.
func (h *Hub) SubscribeToKey(modelID, key string, fn Callback) (unsubscribe func()) {
	return h.add(ScopeKey, modelID, key, fn)
}

func (h *Hub) add(scope Scope, modelID, key string, fn Callback) func() {
	h.mu.Lock()
	h.nextID++
	sub := newSubscription(h.nextID, scope, modelID, key, fn)

	switch scope {
	case ScopeRegistry:
		h.global = append(h.global, sub)
	case ScopeModel:
		h.byModel[modelID] = append(h.byModel[modelID], sub)
	case ScopeKey:
		k := keyIndex{modelID: modelID, key: key}
		h.byKey[k] = append(h.byKey[k], sub)
	}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(sub) })
	}
}

// remove deactivates sub and drops it from its index. Slices are rebuilt
// rather than modified so that a round in progress keeps its own copy.
func (h *Hub) remove(sub *Subscription) {
	sub.Deactivate()

	h.mu.Lock()
	defer h.mu.Unlock()

	switch sub.Scope {
	case ScopeRegistry:
		h.global = without(h.global, sub)
	case ScopeModel:
		subs := without(h.byModel[sub.ModelID], sub)
		if len(subs) == 0 {
			delete(h.byModel, sub.ModelID)
		} else {
			h.byModel[sub.ModelID] = subs
		}
	case ScopeKey:
		k := keyIndex{modelID: sub.ModelID, key: sub.Key}
		subs := without(h.byKey[k], sub)
		if len(subs) == 0 {
			delete(h.byKey, k)
		} else {
			h.byKey[k] = subs
		}
	}
}

func without(subs []*Subscription, target *Subscription) []*Subscription {
	return slices.DeleteFunc(slices.Clone(subs), func(s *Subscription) bool {
		return s == target
	})
}

// Notify delivers c to every matching subscriber.
//
// Key-scope subscribers are reached only by updates. The matching set is
// captured under the lock and invoked after it is released.
func (h *Hub) Notify(c Change) {
	h.mu.RLock()
	var targets []*Subscription
	if c.Kind == ChangeUpdated {
		for _, key := range c.Keys {
			targets = append(targets, h.byKey[keyIndex{modelID: c.ModelID, key: key}]...)
		}
	}
	targets = append(targets, h.byModel[c.ModelID]...)
	targets = append(targets, h.global...)
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(c)
	}
}

// Count returns the number of registered subscriptions across all scopes.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.global)
	for _, subs := range h.byModel {
		n += len(subs)
	}
	for _, subs := range h.byKey {
		n += len(subs)
	}
	return n
}

// Clear removes all subscriptions.
func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.global {
		sub.Deactivate()
	}
	for _, subs := range h.byModel {
		for _, sub := range subs {
			sub.Deactivate()
		}
	}
	for _, subs := range h.byKey {
		for _, sub := range subs {
			sub.Deactivate()
		}
	}
	h.global = nil
	h.byModel = make(map[string][]*Subscription)
	h.byKey = make(map[keyIndex][]*Subscription)
}
