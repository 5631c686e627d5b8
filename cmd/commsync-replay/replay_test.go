package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commsync/commsync-go/pkg/config"
	"github.com/commsync/commsync-go/pkg/log"
	"github.com/commsync/commsync-go/pkg/wire"
)

func TestPrintSender(t *testing.T) {
	msg, err := wire.DecodeJSON([]byte(`{"header": {"msg_type": "comm_msg", "msg_id": "k1"},
		"content": {"comm_id": "img", "data": {"method": "update", "state": {}, "buffer_paths": [["value"]]}}}`))
	require.NoError(t, err)
	msg.Buffers = [][]byte{[]byte("abcd")}

	var out bytes.Buffer
	require.NoError(t, (&printSender{w: &out}).Send(context.Background(), msg))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "OUT {"))
	assert.Contains(t, lines[0], `"comm_id":"img"`)
	assert.Equal(t, "    buffer[0]: 4 bytes", lines[1])
}

func TestProtocolLogger(t *testing.T) {
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disabled", func(t *testing.T) {
		l, closer, err := protocolLogger(config.CaptureConfig{}, log.CompressionNone, slogger)
		require.NoError(t, err)
		assert.Nil(t, l)
		assert.NoError(t, closer())
	})

	t.Run("console only", func(t *testing.T) {
		l, closer, err := protocolLogger(config.CaptureConfig{Console: true}, log.CompressionNone, slogger)
		require.NoError(t, err)
		assert.IsType(t, &log.SlogAdapter{}, l)
		assert.NoError(t, closer())
	})

	t.Run("file only", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cap.clog")
		l, closer, err := protocolLogger(config.CaptureConfig{Path: path}, log.CompressionZstd, slogger)
		require.NoError(t, err)
		assert.IsType(t, &log.FileLogger{}, l)
		require.NoError(t, closer())
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("file and console", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cap.clog")
		l, closer, err := protocolLogger(config.CaptureConfig{Path: path, Console: true}, log.CompressionNone, slogger)
		require.NoError(t, err)
		assert.IsType(t, &log.MultiLogger{}, l)
		require.NoError(t, closer())
	})

	t.Run("bad path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "cap.clog")
		_, _, err := protocolLogger(config.CaptureConfig{Path: path}, log.CompressionNone, slogger)
		assert.Error(t, err)
	})
}
