package model

import (
	"github.com/commsync/commsync-go/pkg/value"
)

// Reserved state keys that carry a model's type identity.
const (
	KeyModelName          = "_model_name"
	KeyModelModule        = "_model_module"
	KeyModelModuleVersion = "_model_module_version"
)

// Model is a published widget model. Its state is frozen: readers can
// walk it but any write through it panics. Clone State() for an editable
// copy.
type Model struct {
	// ID is the comm id the model was created under.
	ID string

	// TypeName is the _model_name given at creation.
	TypeName string

	// ModuleName is the _model_module given at creation.
	ModuleName string

	// ModuleVersion is the _model_module_version given at creation.
	ModuleVersion string

	state *value.Map
}

// newModel takes ownership of state and freezes it.
func newModel(id string, state *value.Map) *Model {
	return &Model{
		ID:            id,
		TypeName:      state.GetString(KeyModelName),
		ModuleName:    state.GetString(KeyModelModule),
		ModuleVersion: state.GetString(KeyModelModuleVersion),
		state:         state.Freeze(),
	}
}

// withState returns a copy of m holding state, which it freezes. Type
// identity is kept from m.
func (m *Model) withState(state *value.Map) *Model {
	next := *m
	next.state = state.Freeze()
	return &next
}

// State returns the read-only state tree.
func (m *Model) State() *value.Map { return m.state }

// Get returns the state value at key. Maps inside it are frozen.
func (m *Model) Get(key string) (value.Value, bool) {
	return m.state.Get(key)
}

// GetString returns the string at key, or "" if absent or not a string.
func (m *Model) GetString(key string) string {
	return m.state.GetString(key)
}

func (m *Model) Keys() []string { return m.state.Keys() }

func (m *Model) Len() int { return m.state.Len() }

// Range calls fn for each top-level entry in key order until fn returns
// false.
func (m *Model) Range(fn func(key string, v value.Value) bool) {
	m.state.Range(fn)
}
