package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commsync/commsync-go/pkg/bufferpath"
	"github.com/commsync/commsync-go/pkg/wire"
)

const imageScript = `{
  "name": "image",
  "description": "an image widget with one buffer",
  "messages": [
    // kernel opens the widget
    {
      "header": {"msg_type": "comm_open"},
      "content": {
        "comm_id": "img",
        "target_name": "jupyter.widget",
        "data": {
          "state": {"_model_name": "ImageModel", "format": "png", "value": null},
          "buffer_paths": [["value"]],
        },
      },
      "buffers": ["UE5H"], /* "PNG" */
    },
    {
      "header": {"msg_type": "comm_close", "msg_id": "bye"},
      "content": {"comm_id": "img"},
    },
  ],
}`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(imageScript))
	require.NoError(t, err)

	assert.Equal(t, "image", s.Name)
	assert.Equal(t, "an image widget with one buffer", s.Description)
	require.Len(t, s.Messages, 2)

	open := s.Messages[0]
	assert.Equal(t, wire.MsgTypeCommOpen, open.MsgType())
	assert.Equal(t, "image-1", open.Header.MsgID)
	assert.Equal(t, "img", open.CommID())
	assert.Equal(t, "ImageModel", open.State().GetString("_model_name"))
	assert.Equal(t, wire.BufferPaths{bufferpath.Path{"value"}}, open.BufferPaths())
	assert.Equal(t, [][]byte{[]byte("PNG")}, open.Buffers)

	closing := s.Messages[1]
	assert.Equal(t, "bye", closing.Header.MsgID)
	assert.Nil(t, closing.Buffers)
}

func TestParseBareArray(t *testing.T) {
	s, err := Parse([]byte(`[
  {"header": {"msg_type": "comm_open"}, "content": {"comm_id": "a"}},
]`))
	require.NoError(t, err)

	assert.Equal(t, "script", s.Name)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "script-1", s.Messages[0].Header.MsgID)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"messages": [ {"header": {}} ]}`))
	assert.ErrorIs(t, err, wire.ErrMissingMsgType)

	_, err = Parse([]byte(`{"messages": 3}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"messages": [{"header": {"msg_type": "comm_open"}, "buffers": ["***"]}]}`))
	assert.Error(t, err, "buffers must be base64")
}

func TestReadFileNamesFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slider.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`[{"header": {"msg_type": "comm_open"}, "content": {"comm_id": "s"}}]`), 0o644))

	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "slider", s.Name)
	assert.Equal(t, "slider-1", s.Messages[0].Header.MsgID)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := Parse([]byte(imageScript))
	require.NoError(t, err)

	data, err := Marshal(s)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, again.Messages, len(s.Messages))
	for i := range s.Messages {
		assert.Equal(t, s.Messages[i].Header, again.Messages[i].Header)
		assert.Equal(t, s.Messages[i].Buffers, again.Messages[i].Buffers)
		assert.True(t, s.Messages[i].State().Equal(again.Messages[i].State()))
	}
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "demo", NameFromPath("/tmp/scripts/demo.jsonc"))
	assert.Equal(t, "plain", NameFromPath("plain"))
}
