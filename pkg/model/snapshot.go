package model

import (
	"slices"
)

// Snapshot is an immutable view of the registry at one version.
type Snapshot struct {
	version uint64
	models  map[string]*Model

	// ids keeps creation order
	ids []string
}

func emptySnapshot() *Snapshot {
	return &Snapshot{models: make(map[string]*Model)}
}

// Version returns the snapshot version. It increases with every accepted
// mutation.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Len returns the number of models.
func (s *Snapshot) Len() int {
	return len(s.models)
}

// GetModel returns the model with id.
func (s *Snapshot) GetModel(id string) (*Model, bool) {
	m, ok := s.models[id]
	return m, ok
}

// IDs returns the model ids in creation order.
func (s *Snapshot) IDs() []string {
	return slices.Clone(s.ids)
}

// Range calls fn for each model in creation order until fn returns false.
func (s *Snapshot) Range(fn func(m *Model) bool) {
	for _, id := range s.ids {
		if !fn(s.models[id]) {
			return
		}
	}
}

// with returns the successor snapshot in which id maps to m. A replaced id
// moves to the end of the creation order.
func (s *Snapshot) with(m *Model, replace bool) *Snapshot {
	next := s.successor(len(s.models) + 1)
	if replace {
		next.ids = slices.DeleteFunc(next.ids, func(id string) bool { return id == m.ID })
		next.ids = append(next.ids, m.ID)
	} else if _, exists := s.models[m.ID]; !exists {
		next.ids = append(next.ids, m.ID)
	}
	next.models[m.ID] = m
	return next
}

// without returns the successor snapshot with id removed.
func (s *Snapshot) without(id string) *Snapshot {
	next := s.successor(len(s.models))
	delete(next.models, id)
	next.ids = slices.DeleteFunc(next.ids, func(other string) bool { return other == id })
	return next
}

// successor copies the index. Model pointers are shared.
func (s *Snapshot) successor(capacity int) *Snapshot {
	models := make(map[string]*Model, capacity)
	for id, m := range s.models {
		models[id] = m
	}
	return &Snapshot{
		version: s.version + 1,
		models:  models,
		ids:     slices.Clone(s.ids),
	}
}
