package wire

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/value"
)

const openJSON = `{
  "header": {"msg_id": "m-1", "msg_type": "comm_open", "username": "kernel", "session": "s-1", "version": "5.3"},
  "parent_header": {},
  "metadata": {"version": "2.1.0"},
  "content": {
    "comm_id": "abc",
    "target_name": "jupyter.widget",
    "data": {
      "state": {"_model_name": "ImageModel", "value": null, "format": "png"},
      "buffer_paths": [["value"]]
    }
  },
  "channel": "iopub"
}`

func TestDecodeJSON(t *testing.T) {
	msg, err := DecodeJSON([]byte(openJSON))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if msg.MsgType() != MsgTypeCommOpen {
		t.Errorf("MsgType = %q, want %q", msg.MsgType(), MsgTypeCommOpen)
	}
	if msg.CommID() != "abc" {
		t.Errorf("CommID = %q, want abc", msg.CommID())
	}
	if msg.Content.TargetName != TargetName {
		t.Errorf("TargetName = %q", msg.Content.TargetName)
	}
	if got := msg.State().Keys(); !reflect.DeepEqual(got, []string{"_model_name", "value", "format"}) {
		t.Errorf("state keys = %v", got)
	}
	want := BufferPaths{{"value"}}
	if !reflect.DeepEqual(msg.BufferPaths(), want) {
		t.Errorf("BufferPaths = %v, want %v", msg.BufferPaths(), want)
	}
	if msg.ParentHeader == nil || msg.ParentHeader.MsgID != "" {
		t.Errorf("ParentHeader = %+v", msg.ParentHeader)
	}
	if msg.Metadata.GetString("version") != "2.1.0" {
		t.Errorf("metadata version = %q", msg.Metadata.GetString("version"))
	}
	if msg.Channel != "iopub" {
		t.Errorf("Channel = %q", msg.Channel)
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"missing msg_type", `{"header": {"msg_id": "1"}, "content": {}}`, ErrMissingMsgType},
		{"not json", `{"header":`, nil},
		{"state not object", `{"header": {"msg_type": "comm_msg"}, "content": {"data": {"state": 5}}}`, nil},
		{"bad path element", `{"header": {"msg_type": "comm_msg"}, "content": {"data": {"buffer_paths": [[true]]}}}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSONAccessorsWithoutData(t *testing.T) {
	msg, err := DecodeJSON([]byte(`{"header": {"msg_type": "comm_close"}, "content": {"comm_id": "x"}}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if msg.Method() != "" || msg.State() != nil || msg.BufferPaths() != nil {
		t.Error("accessors should be empty without data")
	}
}

func TestBufferPathsIndexElements(t *testing.T) {
	msg, err := DecodeJSON([]byte(`{"header": {"msg_type": "comm_msg"},
		"content": {"comm_id": "x", "data": {"method": "update", "state": {}, "buffer_paths": [["items", 0, "data"]]}}}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	want := BufferPaths{{"items", "0", "data"}}
	if !reflect.DeepEqual(msg.BufferPaths(), want) {
		t.Errorf("BufferPaths = %v, want %v", msg.BufferPaths(), want)
	}
}

func TestEncodeJSONRequiresMsgType(t *testing.T) {
	_, err := EncodeJSON(&Message{})
	if !errors.Is(err, ErrMissingMsgType) {
		t.Errorf("err = %v, want ErrMissingMsgType", err)
	}
}

func newUpdate() *Message {
	content := value.Object(value.MapOf("event", "click"))
	return &Message{
		Header: Header{MsgID: "m-2", MsgType: MsgTypeCommMsg},
		Content: Content{
			CommID: "abc",
			Data: &Data{
				Method:      MethodUpdate,
				State:       value.MapOf("value", nil, "label", "x"),
				BufferPaths: BufferPaths{{"value"}},
				Content:     &content,
			},
		},
		Buffers: [][]byte{{0xDE, 0xAD}, {0x01}},
	}
}

func TestJSONRoundTripDropsBuffers(t *testing.T) {
	data, err := EncodeJSON(newUpdate())
	if err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	msg, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if msg.Buffers != nil {
		t.Errorf("Buffers = %v, want nil", msg.Buffers)
	}
	if msg.Method() != MethodUpdate {
		t.Errorf("Method = %q", msg.Method())
	}
	if !msg.State().Equal(value.MapOf("value", nil, "label", "x")) {
		t.Errorf("State = %#v", msg.State())
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	original := newUpdate()

	data, err := EncodeBinary(original)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}

	if n := binary.BigEndian.Uint32(data[0:4]); n != 3 {
		t.Errorf("segment count = %d, want 3", n)
	}
	if first := binary.BigEndian.Uint32(data[4:8]); first != 16 {
		t.Errorf("first offset = %d, want 16", first)
	}

	msg, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}
	if !reflect.DeepEqual(msg.Buffers, original.Buffers) {
		t.Errorf("Buffers = %v, want %v", msg.Buffers, original.Buffers)
	}
	if msg.CommID() != "abc" || msg.Header.MsgID != "m-2" {
		t.Errorf("header/content mismatch: %+v", msg.Header)
	}
	if !reflect.DeepEqual(msg.BufferPaths(), BufferPaths{{"value"}}) {
		t.Errorf("BufferPaths = %v", msg.BufferPaths())
	}
}

func TestBinaryEmptyBuffer(t *testing.T) {
	msg := newUpdate()
	msg.Buffers = [][]byte{{}, {7}}

	data, err := EncodeBinary(msg)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}
	decoded, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}
	if len(decoded.Buffers) != 2 || len(decoded.Buffers[0]) != 0 || decoded.Buffers[1][0] != 7 {
		t.Errorf("Buffers = %v", decoded.Buffers)
	}
}

func TestBinaryNoBuffers(t *testing.T) {
	msg := &Message{Header: Header{MsgType: MsgTypeCommClose}, Content: Content{CommID: "x"}}

	data, err := EncodeBinary(msg)
	if err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}
	decoded, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}
	if decoded.Buffers != nil {
		t.Errorf("Buffers = %v, want nil", decoded.Buffers)
	}
}

func TestDecodeBinaryErrors(t *testing.T) {
	header := func(words ...uint32) []byte {
		out := make([]byte, 4*len(words))
		for i, w := range words {
			binary.BigEndian.PutUint32(out[4*i:], w)
		}
		return out
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"short", []byte{0, 0}, ErrBinaryTruncated},
		{"zero segments", header(0), ErrBinaryEmpty},
		{"huge count", header(1 << 30), ErrBinaryTruncated},
		{"offset inside header", header(1, 4), ErrBinaryOffsets},
		{"offset past end", header(2, 12, 100), ErrBinaryOffsets},
		{"offsets descending", append(header(2, 14, 12), 'a', 'b'), ErrBinaryOffsets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBinary(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCBORRoundTrip(t *testing.T) {
	original := newUpdate()

	data, err := EncodeCBOR(original)
	if err != nil {
		t.Fatalf("EncodeCBOR failed: %v", err)
	}
	msg, err := DecodeCBOR(data)
	if err != nil {
		t.Fatalf("DecodeCBOR failed: %v", err)
	}

	if !reflect.DeepEqual(msg.Buffers, original.Buffers) {
		t.Errorf("Buffers = %v, want %v", msg.Buffers, original.Buffers)
	}
	if !reflect.DeepEqual(msg.BufferPaths(), BufferPaths{bufferpath.Path{"value"}}) {
		t.Errorf("BufferPaths = %v", msg.BufferPaths())
	}
	if !msg.State().Equal(original.State()) {
		t.Errorf("State = %#v", msg.State())
	}
	if msg.Content.Data.Content == nil {
		t.Fatal("custom content lost")
	}
	if !value.Equal(*msg.Content.Data.Content, *original.Content.Data.Content) {
		t.Errorf("Content = %#v", *msg.Content.Data.Content)
	}
}

func TestDecodeCBORRequiresMsgType(t *testing.T) {
	data, err := Marshal(map[string]any{"header": map[string]any{"msg_id": "1"}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := DecodeCBOR(data); !errors.Is(err, ErrMissingMsgType) {
		t.Errorf("err = %v, want ErrMissingMsgType", err)
	}
}
