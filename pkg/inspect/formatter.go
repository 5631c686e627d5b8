package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/commsync/commsync-go/pkg/ref"
	"github.com/commsync/commsync-go/pkg/subscription"
	"github.com/commsync/commsync-go/pkg/value"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes module and version information
	ShowMetadata bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int

	// MaxString truncates long strings; 0 means no limit
	MaxString int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		IndentWidth:  2,
		MaxString:    80,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	indent := strings.Repeat(" ", depth*width)
	return indent + content
}

// FormatValue formats a value on one line.
func (f *Formatter) FormatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"

	case value.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)

	case value.KindNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'g', -1, 64)

	case value.KindString:
		s, _ := v.AsString()
		if f.MaxString > 0 && len(s) > f.MaxString {
			return strconv.Quote(s[:f.MaxString]) + "..."
		}
		return strconv.Quote(s)

	case value.KindBinary:
		b, _ := v.AsBinary()
		return fmt.Sprintf("<%d bytes>", len(b))

	case value.KindList:
		items, _ := v.AsList()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = f.FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"

	case value.KindMap:
		m, _ := v.AsMap()
		parts := make([]string, 0, m.Len())
		m.Range(func(k string, item value.Value) bool {
			parts = append(parts, k+": "+f.FormatValue(item))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"

	default:
		return v.Kind().String()
	}
}

// FormatResult formats a resolved value, naming the target of a reference.
func (f *Formatter) FormatResult(r ref.Result) string {
	if !r.IsRef() {
		return f.FormatValue(r.Value)
	}
	if r.Broken() {
		return fmt.Sprintf("-> %s (missing)", r.ID)
	}
	if r.Model.TypeName != "" {
		return fmt.Sprintf("-> %s (%s)", r.ID, r.Model.TypeName)
	}
	return "-> " + r.ID
}

// FormatModel formats a model with one line per state key.
func (f *Formatter) FormatModel(info *ModelInfo) string {
	var sb strings.Builder

	sb.WriteString("Model " + info.ID)
	if info.TypeName != "" {
		sb.WriteString(" (" + info.TypeName + ")")
	}
	sb.WriteString("\n")

	if f.ShowMetadata {
		if info.ModuleName != "" {
			sb.WriteString(f.Indent(1, fmt.Sprintf("module: %s %s\n", info.ModuleName, info.ModuleVersion)))
		}
		sb.WriteString(f.Indent(1, fmt.Sprintf("registry version: %d\n", info.Version)))
	}

	if len(info.Keys) == 0 {
		sb.WriteString(f.Indent(1, "(empty state)\n"))
		return sb.String()
	}
	for _, k := range info.Keys {
		line := k.Name + ": " + f.FormatValue(k.Value)
		if k.Ref != nil {
			line += " " + f.FormatResult(*k.Ref)
		}
		sb.WriteString(f.Indent(1, line+"\n"))
		if k.Media != "" {
			src := k.Media
			if f.MaxString > 0 && len(src) > f.MaxString {
				src = src[:f.MaxString] + "..."
			}
			sb.WriteString(f.Indent(2, "src: "+src+"\n"))
		}
	}
	return sb.String()
}

// FormatModelTable formats a registry listing as a table.
func (f *Formatter) FormatModelTable(rows []ModelSummary) string {
	if len(rows) == 0 {
		return "  (no models)\n"
	}

	var sb strings.Builder
	for _, row := range rows {
		name := row.TypeName
		if name == "" {
			name = "-"
		}
		sb.WriteString(fmt.Sprintf("  %-36s %-24s %d keys", row.ID, name, row.Keys))
		if f.ShowMetadata && row.ModuleName != "" {
			sb.WriteString(" [" + row.ModuleName + "]")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatChange formats a change notification on one line.
func (f *Formatter) FormatChange(c subscription.Change) string {
	line := fmt.Sprintf("v%d %s %s", c.Version, c.Kind, c.ModelID)
	if len(c.Keys) > 0 {
		line += " [" + strings.Join(c.Keys, ", ") + "]"
	}
	return line
}
