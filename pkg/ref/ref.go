// Package ref resolves cross-model references.
//
// A reference is a plain string value holding Prefix followed by a model id.
// References are stored unresolved in state and looked up on demand, one hop
// at a time: a referenced model's own references are left for the caller.
package ref

import (
	"strings"

	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/value"
)

// Prefix marks a string value as a model reference.
const Prefix = "IPY_MODEL_"

// Lookup finds models by id. Both *model.Store and *model.Snapshot satisfy it.
type Lookup interface {
	GetModel(id string) (*model.Model, bool)
}

var (
	_ Lookup = (*model.Store)(nil)
	_ Lookup = (*model.Snapshot)(nil)
)

// Result is the outcome of resolving a value.
//
// For a non-reference value only Value is set. For a reference, ID holds
// the referenced id and Model holds the model, or nil if it does not exist.
type Result struct {
	Value value.Value
	ID    string
	Model *model.Model
}

// IsRef reports whether the result came from a reference.
func (r Result) IsRef() bool {
	return r.ID != ""
}

// Broken reports whether the result is a reference to a missing model.
func (r Result) Broken() bool {
	return r.ID != "" && r.Model == nil
}

// IsRef reports whether v is a string carrying a non-empty model id.
func IsRef(v value.Value) bool {
	_, ok := Parse(v)
	return ok
}

// Parse extracts the model id from a reference.
func Parse(v value.Value) (string, bool) {
	s, ok := v.AsString()
	if !ok {
		return "", false
	}
	id, found := strings.CutPrefix(s, Prefix)
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// Format returns the reference value for id.
func Format(id string) value.Value {
	return value.String(Prefix + id)
}

// Resolve follows v if it is a reference. Other values pass through
// unchanged. A broken reference yields a nil Model with ID set.
func Resolve(v value.Value, lookup Lookup) Result {
	id, ok := Parse(v)
	if !ok {
		return Result{Value: v}
	}
	m, _ := lookup.GetModel(id)
	return Result{Value: v, ID: id, Model: m}
}

// ResolveList resolves each element of a list value, as used for container
// children. A non-list value resolves to nil.
func ResolveList(v value.Value, lookup Lookup) []Result {
	items, ok := v.AsList()
	if !ok {
		return nil
	}
	out := make([]Result, len(items))
	for i, item := range items {
		out[i] = Resolve(item, lookup)
	}
	return out
}
