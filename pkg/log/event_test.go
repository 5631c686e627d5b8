package log

import (
	"bytes"
	"reflect"
	"testing"
	"time"
)

func TestEventRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)
	events := []Event{
		{
			Timestamp: ts,
			SessionID: "s1",
			Direction: DirectionIn,
			Layer:     LayerWire,
			Category:  CategoryMessage,
			CommID:    "w1",
			Message: &MessageEvent{
				MsgID:         "m1",
				MsgType:       "comm_msg",
				Method:        "update",
				Keys:          []string{"value"},
				BufferPaths:   []string{"value"},
				BufferSizes:   []int{3},
				BufferDigests: [][]byte{DigestBuffer([]byte("abc"))},
				Data:          []byte(`{"method":"update"}`),
			},
		},
		{
			Timestamp: ts,
			SessionID: "s1",
			Layer:     LayerStore,
			Category:  CategoryMutation,
			CommID:    "w1",
			Mutation: &MutationEvent{
				Op:        MutationCreate,
				ModelID:   "w1",
				ModelName: "IntSliderModel",
				Version:   4,
				Replaced:  true,
			},
		},
		{
			Timestamp: ts,
			SessionID: "s1",
			Layer:     LayerRouter,
			Category:  CategoryDrop,
			Drop:      &DropEvent{MsgType: "comm_msg", Reason: "unknown model"},
		},
	}

	for _, want := range events {
		t.Run(want.Category.String(), func(t *testing.T) {
			data, err := EncodeEvent(want)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			got, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			if !got.Timestamp.Equal(want.Timestamp) {
				t.Errorf("Timestamp: got %v, want %v", got.Timestamp, want.Timestamp)
			}
			got.Timestamp = want.Timestamp
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestEventEncodingIsDeterministic(t *testing.T) {
	e := Event{
		Timestamp: time.Unix(0, 42).UTC(),
		SessionID: "s1",
		Category:  CategoryError,
		Error:     &ErrorEventData{Layer: LayerWire, Message: "bad", Context: "decode"},
	}
	a, _ := EncodeEvent(e)
	b, _ := EncodeEvent(e)
	if !bytes.Equal(a, b) {
		t.Error("encoding differs between calls")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerStore.String(), "STORE"},
		{CategoryDrop.String(), "DROP"},
		{MutationUpdate.String(), "UPDATE"},
		{MutationOp(7).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
