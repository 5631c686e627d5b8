// Package script reads comm message scripts.
//
// A script is a JSONC document (JSON with comments and trailing commas)
// listing comm messages in the order a kernel would send them. Buffers are
// given as base64 strings. Either a bare array of messages or an object with
// a "messages" array is accepted:
//
//	{
//	  "name": "slider",
//	  "messages": [
//	    // open a slider
//	    {
//	      "header": {"msg_type": "comm_open"},
//	      "content": {"comm_id": "s1", "data": {"state": {"value": 3}}},
//	    },
//	  ],
//	}
package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/commsync/commsync-go/pkg/wire"
)

// Script is a named sequence of inbound messages.
type Script struct {
	Name        string
	Description string
	Messages    []*wire.Message
}

type document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Messages    []step `json:"messages"`
}

// step is a message with buffers carried in the JSON body.
type step struct {
	wire.Message
	Buffers [][]byte `json:"buffers,omitempty"`
}

// Parse decodes a JSONC script. Messages without a msg_id get one derived
// from the script name and position.
func Parse(data []byte) (*Script, error) {
	return parse(data, "script")
}

// ReadFile reads and parses the script at path. An unnamed script takes
// its name from the file name.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s, err := parse(data, NameFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parse(data []byte, defaultName string) (*Script, error) {
	stripped := jsonc.ToJSON(data)

	var doc document
	if trimmed := bytes.TrimSpace(stripped); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(stripped, &doc.Messages); err != nil {
			return nil, fmt.Errorf("parsing script: %w", err)
		}
	} else if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}

	s := &Script{
		Name:        doc.Name,
		Description: doc.Description,
		Messages:    make([]*wire.Message, 0, len(doc.Messages)),
	}
	if s.Name == "" {
		s.Name = defaultName
	}

	for i, st := range doc.Messages {
		msg := st.Message
		msg.Buffers = st.Buffers
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("message %d: %w", i+1, err)
		}
		if msg.Header.MsgID == "" {
			msg.Header.MsgID = fmt.Sprintf("%s-%d", s.Name, i+1)
		}
		s.Messages = append(s.Messages, &msg)
	}
	return s, nil
}

// Marshal renders s as indented JSON that Parse accepts.
func Marshal(s *Script) ([]byte, error) {
	doc := document{Name: s.Name, Description: s.Description}
	for _, msg := range s.Messages {
		doc.Messages = append(doc.Messages, step{Message: *msg, Buffers: msg.Buffers})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// NameFromPath strips the directory and extension from path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
