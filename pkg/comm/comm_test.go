package comm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commsync/commsync-go/pkg/comm/mocks"
	"github.com/commsync/commsync-go/pkg/value"
	"github.com/commsync/commsync-go/pkg/wire"
)

func TestNewDefaults(t *testing.T) {
	c := New(Config{}, mocks.NewMockSender(t))

	_, err := uuid.Parse(c.ID())
	assert.NoError(t, err, "generated id should be a UUID")
	assert.False(t, c.IsClosed())
}

func TestSendFillsHeader(t *testing.T) {
	sender := mocks.NewMockSender(t)
	c := New(Config{ID: "w1", Session: "s1", Username: "alice"}, sender)

	var sent *wire.Message
	sender.EXPECT().Send(mock.Anything, mock.Anything).
		Run(func(_ context.Context, msg *wire.Message) { sent = msg }).
		Return(nil).Once()

	state := value.MapOf("value", 1)
	data := &wire.Data{Method: wire.MethodUpdate, State: state, BufferPaths: wire.BufferPaths{{"data"}}}
	require.NoError(t, c.Send(context.Background(), data, [][]byte{{1}}))

	require.NotNil(t, sent)
	assert.Equal(t, wire.MsgTypeCommMsg, sent.Header.MsgType)
	assert.Equal(t, "s1", sent.Header.Session)
	assert.Equal(t, "alice", sent.Header.Username)
	assert.NotEmpty(t, sent.Header.MsgID)
	assert.NotEmpty(t, sent.Header.Date)
	assert.Equal(t, "w1", sent.CommID())
	assert.Same(t, state, sent.State())
	assert.Equal(t, wire.BufferPaths{{"data"}}, sent.BufferPaths())
	assert.Equal(t, [][]byte{{1}}, sent.Buffers)
	assert.Equal(t, wire.ProtocolVersion, sent.Metadata.GetString("version"))
}

func TestSendUsesFreshMessageIDs(t *testing.T) {
	sender := mocks.NewMockSender(t)
	c := New(Config{ID: "w1"}, sender)

	ids := map[string]bool{}
	sender.EXPECT().Send(mock.Anything, mock.Anything).
		Run(func(_ context.Context, msg *wire.Message) { ids[msg.Header.MsgID] = true }).
		Return(nil).Times(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Send(context.Background(), &wire.Data{Method: wire.MethodUpdate, State: value.NewMap()}, nil))
	}
	assert.Len(t, ids, 3)
}

func TestSendWrapsSenderError(t *testing.T) {
	sender := mocks.NewMockSender(t)
	c := New(Config{ID: "w1"}, sender)
	boom := errors.New("boom")

	sender.EXPECT().Send(mock.Anything, mock.Anything).Return(boom).Once()

	err := c.Send(context.Background(), &wire.Data{Method: wire.MethodCustom}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "comm_msg on comm w1")
}

func TestCloseOnce(t *testing.T) {
	sender := mocks.NewMockSender(t)
	c := New(Config{ID: "w1"}, sender)

	sender.EXPECT().Send(mock.Anything, mock.MatchedBy(func(msg *wire.Message) bool {
		return msg.Header.MsgType == wire.MsgTypeCommClose && msg.CommID() == "w1"
	})).Return(nil).Once()

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	assert.True(t, c.IsClosed())

	assert.ErrorIs(t, c.Send(context.Background(), &wire.Data{}, nil), ErrClosed)
}

func TestSenderFunc(t *testing.T) {
	var got string
	c := New(Config{ID: "w1"}, SenderFunc(func(_ context.Context, msg *wire.Message) error {
		got = msg.Header.MsgType
		return nil
	}))

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, wire.MsgTypeCommClose, got)
}
