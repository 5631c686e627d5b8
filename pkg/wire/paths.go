package wire

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/commsync/commsync-go/pkg/bufferpath"
)

// BufferPaths is the buffer_paths list. Path elements may arrive as strings
// or as list indices; indices are kept in their decimal form and will not
// match a map key unless the state uses one.
type BufferPaths []bufferpath.Path

// UnmarshalJSON accepts string and integer path elements.
func (p *BufferPaths) UnmarshalJSON(data []byte) error {
	var raw [][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("buffer_paths: %w", err)
	}
	paths, err := toPaths(raw)
	if err != nil {
		return err
	}
	*p = paths
	return nil
}

// UnmarshalCBOR accepts string and integer path elements.
func (p *BufferPaths) UnmarshalCBOR(data []byte) error {
	var raw [][]any
	if err := Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("buffer_paths: %w", err)
	}
	paths, err := toPaths(raw)
	if err != nil {
		return err
	}
	*p = paths
	return nil
}

func toPaths(raw [][]any) (BufferPaths, error) {
	if raw == nil {
		return nil, nil
	}
	paths := make(BufferPaths, len(raw))
	for i, elems := range raw {
		path := make(bufferpath.Path, len(elems))
		for j, e := range elems {
			seg, err := segment(e)
			if err != nil {
				return nil, fmt.Errorf("buffer_paths[%d][%d]: %w", i, j, err)
			}
			path[j] = seg
		}
		paths[i] = path
	}
	return paths, nil
}

func segment(e any) (string, error) {
	switch v := e.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	default:
		return "", fmt.Errorf("unsupported path element %T", e)
	}
}
