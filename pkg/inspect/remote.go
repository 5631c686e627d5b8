package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/value"
)

// Updater sends state changes and custom messages to the kernel. This is
// implemented by session.Session.
type Updater interface {
	RequestUpdate(ctx context.Context, id string, patch *value.Map) error
	SendCustom(ctx context.Context, id string, content value.Value, buffers [][]byte) error
}

// RemoteWriter requests changes to models owned by the kernel. The local
// registry only changes once the kernel echoes the new state.
type RemoteWriter struct {
	updater Updater
	models  model.Reader
}

// NewRemoteWriter creates a new remote writer for the given session.
// models supplies current state for nested writes.
func NewRemoteWriter(updater Updater, models model.Reader) *RemoteWriter {
	return &RemoteWriter{updater: updater, models: models}
}

// Write requests that the value at path be set to v.
//
// Updates merge shallowly, so a nested path is sent as the whole top-level
// value with the nested entry replaced.
func (r *RemoteWriter) Write(ctx context.Context, path *Path, v value.Value) error {
	if path == nil {
		return errors.New("path is nil")
	}
	if path.IsPartial() {
		return errors.New("path is partial, cannot write to partial path")
	}

	top := path.Keys[0]
	patch := value.NewMap()
	if len(path.Keys) == 1 {
		patch.Set(top, v)
		return r.updater.RequestUpdate(ctx, path.ModelID, patch)
	}

	current, err := read(r.models.Snapshot(), &Path{ModelID: path.ModelID, Keys: []string{top}})
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	tree, ok := current.AsMap()
	if !ok {
		if !current.IsNull() {
			return fmt.Errorf("%w: %s at %q", ErrNotAMap, path, top)
		}
		tree = value.NewMap()
	} else {
		tree = tree.Clone()
	}
	if err := setNested(tree, path.Keys[1:], v); err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}
	patch.Set(top, value.Object(tree))
	return r.updater.RequestUpdate(ctx, path.ModelID, patch)
}

// Send sends a custom message to the model at path.
func (r *RemoteWriter) Send(ctx context.Context, path *Path, content value.Value) error {
	if path == nil {
		return errors.New("path is nil")
	}
	return r.updater.SendCustom(ctx, path.ModelID, content, nil)
}

// setNested sets keys inside tree, creating missing maps.
func setNested(tree *value.Map, keys []string, v value.Value) error {
	current := tree
	for _, key := range keys[:len(keys)-1] {
		next, exists := current.Get(key)
		if !exists || next.IsNull() {
			m := value.NewMap()
			current.Set(key, value.Object(m))
			current = m
			continue
		}
		m, ok := next.AsMap()
		if !ok {
			return ErrNotAMap
		}
		current = m
	}
	current.Set(keys[len(keys)-1], v)
	return nil
}

// ParseValue parses shell input as JSON, falling back to a plain string
// for bare words.
func ParseValue(s string) value.Value {
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) {
		var v value.Value
		if err := v.UnmarshalJSON([]byte(s)); err == nil {
			return v
		}
	}
	return value.String(s)
}
