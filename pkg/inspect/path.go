// Package inspect reads, formats and edits widget models for display.
//
// The inspect package offers a unified interface for:
//   - Parsing path expressions (e.g., "slider1/layout/width")
//   - Reading state values and following model references
//   - Requesting state changes through a session
//   - Formatting output for display
package inspect

import (
	"errors"
	"strings"

	"github.com/commsync/commsync-go/pkg/ref"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Path represents a parsed inspection path.
// Format: model[/key[/nested...]]
type Path struct {
	// ModelID is the model (comm) identifier.
	ModelID string

	// Keys descend through the model state. Empty for a whole-model path.
	Keys []string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "id" - the whole model
//   - "id/key" - a top-level state key
//   - "id/key/nested" - a key inside a nested map
//
// The model id may carry the reference prefix, so a value copied from
// state ("IPY_MODEL_id") can be pasted as a path.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	// Check for invalid patterns
	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(input, "/")
	id := strings.TrimPrefix(parts[0], ref.Prefix)
	if id == "" {
		return nil, ErrInvalidPath
	}

	p := &Path{ModelID: id, Raw: input}
	if len(parts) > 1 {
		p.Keys = parts[1:]
	}
	return p, nil
}

// IsPartial reports whether the path names a whole model.
func (p *Path) IsPartial() bool {
	return len(p.Keys) == 0
}

// String returns the path as a string.
func (p *Path) String() string {
	if len(p.Keys) == 0 {
		return p.ModelID
	}
	return p.ModelID + "/" + strings.Join(p.Keys, "/")
}
