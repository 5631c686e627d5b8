package inspect

import (
	"errors"
	"fmt"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/model"
	"github.com/commsync/commsync-go/pkg/ref"
	"github.com/commsync/commsync-go/pkg/value"
)

// Inspector errors.
var (
	ErrModelNotFound = errors.New("model not found")
	ErrKeyNotFound   = errors.New("key not found")
	ErrNotAMap       = errors.New("value is not a map")
)

// Inspector provides read access to a model registry. Every call works on
// one snapshot, so a result never mixes two registry versions.
type Inspector struct {
	models model.Reader
}

// NewInspector creates a new Inspector for the given registry.
func NewInspector(models model.Reader) *Inspector {
	return &Inspector{models: models}
}

// Models returns the underlying registry.
func (i *Inspector) Models() model.Reader {
	return i.models
}

// ModelSummary is one row of a registry listing.
type ModelSummary struct {
	ID         string
	TypeName   string
	ModuleName string
	Keys       int
}

// ModelInfo represents a model for display.
type ModelInfo struct {
	ID            string
	TypeName      string
	ModuleName    string
	ModuleVersion string
	Version       uint64
	Keys          []KeyInfo
}

// KeyInfo represents one state entry. Ref is set when the value is a model
// reference. Media is set on the value of an image, video or audio widget.
type KeyInfo struct {
	Name  string
	Value value.Value
	Ref   *ref.Result
	Media string
}

// mediaWidgets maps media widget types to their media category and the
// format assumed when the model has none.
var mediaWidgets = map[string]struct{ category, format string }{
	"ImageModel": {"image", "png"},
	"VideoModel": {"video", "mp4"},
	"AudioModel": {"audio", "mp3"},
}

func mediaReference(m *model.Model, v value.Value) string {
	kind, ok := mediaWidgets[m.TypeName]
	if !ok {
		return ""
	}
	format := m.GetString("format")
	if format == "" {
		format = kind.format
	}
	src, _ := bufferpath.BuildMediaReference(v, kind.category, format)
	return src
}

// List returns a summary of every model in creation order.
func (i *Inspector) List() []ModelSummary {
	snap := i.models.Snapshot()
	out := make([]ModelSummary, 0, snap.Len())
	snap.Range(func(m *model.Model) bool {
		out = append(out, ModelSummary{
			ID:         m.ID,
			TypeName:   m.TypeName,
			ModuleName: m.ModuleName,
			Keys:       m.Len(),
		})
		return true
	})
	return out
}

// InspectModel returns the model with id and its resolved references.
func (i *Inspector) InspectModel(id string) (*ModelInfo, error) {
	snap := i.models.Snapshot()
	m, ok := snap.GetModel(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}

	info := &ModelInfo{
		ID:            m.ID,
		TypeName:      m.TypeName,
		ModuleName:    m.ModuleName,
		ModuleVersion: m.ModuleVersion,
		Version:       snap.Version(),
	}
	m.Range(func(key string, v value.Value) bool {
		ki := KeyInfo{Name: key, Value: v}
		if r := ref.Resolve(v, snap); r.IsRef() {
			ki.Ref = &r
		}
		if key == "value" {
			ki.Media = mediaReference(m, v)
		}
		info.Keys = append(info.Keys, ki)
		return true
	})
	return info, nil
}

// Read returns the value at path. A whole-model path yields the state
// as a map value.
func (i *Inspector) Read(path *Path) (value.Value, error) {
	return read(i.models.Snapshot(), path)
}

// Resolve reads the value at path and follows it if it is a reference.
func (i *Inspector) Resolve(path *Path) (ref.Result, error) {
	snap := i.models.Snapshot()
	v, err := read(snap, path)
	if err != nil {
		return ref.Result{}, err
	}
	return ref.Resolve(v, snap), nil
}

// Children resolves a list of references at path, as held by container
// widgets.
func (i *Inspector) Children(path *Path) ([]ref.Result, error) {
	snap := i.models.Snapshot()
	v, err := read(snap, path)
	if err != nil {
		return nil, err
	}
	return ref.ResolveList(v, snap), nil
}

func read(snap *model.Snapshot, path *Path) (value.Value, error) {
	m, ok := snap.GetModel(path.ModelID)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrModelNotFound, path.ModelID)
	}
	if path.IsPartial() {
		return value.Object(m.State()), nil
	}

	current := m.State()
	for n, key := range path.Keys {
		v, ok := current.Get(key)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		if n == len(path.Keys)-1 {
			return v, nil
		}
		next, ok := v.AsMap()
		if !ok {
			return value.Value{}, fmt.Errorf("%w: %s at %q", ErrNotAMap, path, key)
		}
		current = next
	}
	return value.Value{}, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
}
