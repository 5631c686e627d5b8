package bufferpath

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/commsync/commsync-go/pkg/value"
)

func TestApplyPathsCreatesIntermediateMaps(t *testing.T) {
	tree := value.MapOf("image", value.NewMap(), "other", nil)
	paths := []Path{{"data"}, {"image", "value"}, {"other", "deep", "blob"}}
	buffers := [][]byte{{1}, {2}, {3}}

	got := ApplyPaths(tree, paths, buffers)

	if got != tree {
		t.Fatal("ApplyPaths should return the same tree")
	}
	for i, p := range paths {
		v, ok := lookup(tree, p)
		if !ok {
			t.Fatalf("path %s not set", p)
		}
		data, isBinary := v.AsBinary()
		if !isBinary || !bytes.Equal(data, buffers[i]) {
			t.Errorf("path %s = %#v, want %v", p, v, buffers[i])
		}
	}
}

func TestApplyPathsTruncatesToShorterInput(t *testing.T) {
	tests := []struct {
		name    string
		paths   []Path
		buffers [][]byte
		want    []string
	}{
		{"fewer buffers", []Path{{"a"}, {"b"}}, [][]byte{{1}}, []string{"a"}},
		{"fewer paths", []Path{{"a"}}, [][]byte{{1}, {2}}, []string{"a"}},
		{"nil buffers", []Path{{"a"}}, nil, nil},
		{"empty path skipped", []Path{{}, {"b"}}, [][]byte{{1}, {2}}, []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := ApplyPaths(value.NewMap(), tt.paths, tt.buffers)
			if got := tree.Keys(); !reflect.DeepEqual(got, tt.want) && !(len(got) == 0 && len(tt.want) == 0) {
				t.Errorf("keys = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyPathsSkipsNonMapIntermediate(t *testing.T) {
	tree := value.MapOf("scalar", 5)

	ApplyPaths(tree, []Path{{"scalar", "x"}}, [][]byte{{1}})

	v, _ := tree.Get("scalar")
	if !value.Equal(v, value.Int(5)) {
		t.Errorf("scalar overwritten: %#v", v)
	}
}

func TestApplyPathsNilTree(t *testing.T) {
	tree := ApplyPaths(nil, []Path{{"a"}}, [][]byte{{9}})
	if !tree.Has("a") {
		t.Error("expected new tree with key a")
	}
}

func TestExtractPathsKeepsPositions(t *testing.T) {
	tree := value.MapOf(
		"blob", []byte{1, 2},
		"text", "hello",
		"nested", value.MapOf("inner", []byte{3}),
	)
	paths := []Path{
		{"blob"},
		{"missing", "x"},
		{"text"},
		{},
		{"nested", "inner"},
		{"text", "deeper"},
	}

	buffers := ExtractPaths(tree, paths)

	if len(buffers) != len(paths) {
		t.Fatalf("len(buffers) = %d, want %d", len(buffers), len(paths))
	}
	want := [][]byte{{1, 2}, {}, {}, {}, {3}, {}}
	for i := range want {
		if !bytes.Equal(buffers[i], want[i]) {
			t.Errorf("buffers[%d] = %v, want %v", i, buffers[i], want[i])
		}
		if buffers[i] == nil {
			t.Errorf("buffers[%d] is nil, want zero-length placeholder", i)
		}
	}

	if v, _ := tree.Get("blob"); !v.IsNull() {
		t.Errorf("blob = %#v, want null", v)
	}
	if v, _ := tree.Get("text"); !value.Equal(v, value.String("hello")) {
		t.Errorf("text changed to %#v", v)
	}
	if tree.Has("missing") {
		t.Error("extract must not create missing paths")
	}
}

func TestExtractPathsCopiesBuffers(t *testing.T) {
	payload := []byte{7, 8, 9}
	tree := value.MapOf("blob", payload)

	buffers := ExtractPaths(tree, []Path{{"blob"}})
	payload[0] = 0

	if buffers[0][0] != 7 {
		t.Error("extracted buffer aliases the tree payload")
	}
}

func TestApplyExtractRoundTrip(t *testing.T) {
	original := value.MapOf("title", "chart", "series", value.MapOf("x", nil))
	paths := []Path{{"series", "x"}, {"series", "y"}, {"thumbnail"}}
	buffers := [][]byte{{1, 1}, {2, 2, 2}, {3}}

	tree := ApplyPaths(original.Clone(), paths, buffers)
	got := ExtractPaths(tree, paths)

	if !reflect.DeepEqual(got, buffers) {
		t.Errorf("round trip buffers = %v, want %v", got, buffers)
	}
	for _, p := range paths {
		v, ok := lookup(tree, p)
		if !ok || !v.IsNull() {
			t.Errorf("path %s = %#v, want null", p, v)
		}
	}
}

func TestFindPaths(t *testing.T) {
	tree := value.MapOf(
		"a", []byte{1},
		"b", "text",
		"c", value.MapOf("d", []byte{2}, "e", value.MapOf("f", []byte{3})),
		"list", value.List(value.Binary([]byte{4})),
	)

	got := FindPaths(tree)
	want := []Path{{"a"}, {"c", "d"}, {"c", "e", "f"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindPaths = %v, want %v", got, want)
	}
}

func TestFindPathsFeedsExtract(t *testing.T) {
	tree := value.MapOf("x", value.MapOf("y", []byte{5}), "z", []byte{6})

	buffers := ExtractPaths(tree, FindPaths(tree))

	if !reflect.DeepEqual(buffers, [][]byte{{5}, {6}}) {
		t.Errorf("buffers = %v", buffers)
	}
	if len(FindPaths(tree)) != 0 {
		t.Error("binaries should be gone after extraction")
	}
}

func lookup(tree *value.Map, p Path) (value.Value, bool) {
	parent, ok := walk(tree, p[:len(p)-1])
	if !ok {
		return value.Value{}, false
	}
	return parent.Get(p[len(p)-1])
}
