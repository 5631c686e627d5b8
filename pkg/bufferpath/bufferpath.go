package bufferpath

import (
	"bytes"
	"strings"

	"github.com/commsync/commsync-go/pkg/value"
)

// Path addresses a location inside a state tree.
type Path []string

// String renders the path with "/" separators.
func (p Path) String() string {
	return strings.Join(p, "/")
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// ApplyPaths stores each buffer at its path inside tree.
//
// Pairs are taken by index up to min(len(paths), len(buffers)). Missing or
// null intermediate segments become new maps. A pair is skipped when its path
// is empty or an intermediate segment holds a non-map value. The tree is
// modified in place and returned; a nil tree is replaced by a new map.
func ApplyPaths(tree *value.Map, paths []Path, buffers [][]byte) *value.Map {
	if tree == nil {
		tree = value.NewMap()
	}

	n := min(len(paths), len(buffers))
	for i := 0; i < n; i++ {
		path := paths[i]
		if len(path) == 0 {
			continue
		}

		parent, ok := walkCreate(tree, path[:len(path)-1])
		if !ok {
			continue
		}
		parent.Set(path[len(path)-1], value.Binary(buffers[i]))
	}

	return tree
}

// walkCreate descends through segments, creating maps where a segment is
// absent or null. It fails if a segment holds any other non-map value.
func walkCreate(tree *value.Map, segments []string) (*value.Map, bool) {
	current := tree
	for _, key := range segments {
		v, exists := current.Get(key)
		if !exists || v.IsNull() {
			next := value.NewMap()
			current.Set(key, value.Object(next))
			current = next
			continue
		}
		next, ok := v.AsMap()
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// ExtractPaths removes the buffers addressed by paths from tree.
//
// The result always has len(paths) entries so positions stay aligned with
// the wire format. Where a path cannot be walked or does not end at a binary
// value, a zero-length placeholder is emitted and the tree is left alone.
// Otherwise a copy of the buffer is emitted and the tree value is replaced
// with null.
func ExtractPaths(tree *value.Map, paths []Path) [][]byte {
	buffers := make([][]byte, 0, len(paths))

	for _, path := range paths {
		if len(path) == 0 {
			buffers = append(buffers, []byte{})
			continue
		}

		parent, ok := walk(tree, path[:len(path)-1])
		if !ok {
			buffers = append(buffers, []byte{})
			continue
		}

		key := path[len(path)-1]
		v, _ := parent.Get(key)
		data, isBinary := v.AsBinary()
		if !isBinary {
			buffers = append(buffers, []byte{})
			continue
		}

		buffers = append(buffers, bytes.Clone(data))
		parent.Set(key, value.Null())
	}

	return buffers
}

// walk descends through segments without modifying the tree.
func walk(tree *value.Map, segments []string) (*value.Map, bool) {
	if tree == nil {
		return nil, false
	}
	current := tree
	for _, key := range segments {
		next, ok := current.GetMap(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// FindPaths returns the path of every binary value in tree, in key order.
// Lists are not searched.
func FindPaths(tree *value.Map) []Path {
	var paths []Path
	findPaths(tree, nil, &paths)
	return paths
}

func findPaths(tree *value.Map, prefix Path, out *[]Path) {
	tree.Range(func(key string, v value.Value) bool {
		current := append(prefix.Clone(), key)
		switch v.Kind() {
		case value.KindBinary:
			*out = append(*out, current)
		case value.KindMap:
			nested, _ := v.AsMap()
			findPaths(nested, current, out)
		}
		return true
	})
}
