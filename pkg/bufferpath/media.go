package bufferpath

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/commsync/commsync-go/pkg/value"
)

// schemePattern matches an RFC 3986 scheme followed by "://".
var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// BuildMediaReference turns a media widget value into a source reference.
//
// Strings that are already references (a URI scheme, a "data:" URL or an
// absolute path) pass through. Other strings are taken to be base64 payloads
// and binary values are base64-encoded; both are wrapped as
//
//	data:<category>/<format>;base64,<payload>
//
// Null, empty strings, empty buffers and other kinds yield ok == false.
func BuildMediaReference(v value.Value, category, format string) (ref string, ok bool) {
	switch v.Kind() {
	case value.KindBinary:
		data, _ := v.AsBinary()
		if len(data) == 0 {
			return "", false
		}
		return dataURL(category, format, base64.StdEncoding.EncodeToString(data)), true

	case value.KindString:
		s, _ := v.AsString()
		if s == "" {
			return "", false
		}
		if isQualified(s) {
			return s, true
		}
		return dataURL(category, format, s), true

	default:
		return "", false
	}
}

func isQualified(s string) bool {
	return strings.HasPrefix(s, "data:") ||
		strings.HasPrefix(s, "/") ||
		schemePattern.MatchString(s)
}

func dataURL(category, format, payload string) string {
	return fmt.Sprintf("data:%s/%s;base64,%s", category, format, payload)
}
