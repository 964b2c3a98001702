package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr error
	}{
		{
			name:  "join",
			frame: `{"type":"join","payload":{"roomId":"a-b","senderId":"a","receiverId":"b","senderName":"Ann","receiverName":"Ben"}}`,
			want: &Join{Participants: Participants{
				RoomID: "a-b", SenderID: "a", ReceiverID: "b", SenderName: "Ann", ReceiverName: "Ben",
			}},
		},
		{
			name:  "chat",
			frame: `{"type":"chat","payload":{"message":"hi","roomId":"a-b","senderId":"a","receiverId":"b","senderName":"Ann","receiverName":"Ben"}}`,
			want: &Chat{
				Participants: Participants{RoomID: "a-b", SenderID: "a", ReceiverID: "b", SenderName: "Ann", ReceiverName: "Ben"},
				Message:      "hi",
			},
		},
		{
			name:  "leave",
			frame: `{"type":"leave","payload":{"roomId":"a-b","senderId":"a"}}`,
			want:  &Leave{Participants: Participants{RoomID: "a-b", SenderID: "a"}},
		},
		{
			name:  "typing flat",
			frame: `{"type":"typing","roomId":"a-b","isTyping":true}`,
			want:  &Typing{RoomID: "a-b", IsTyping: true},
		},
		{
			name:  "typing in payload",
			frame: `{"type":"typing","payload":{"roomId":"a-b","isTyping":true}}`,
			want:  &Typing{RoomID: "a-b", IsTyping: true},
		},
		{
			name:    "not json",
			frame:   `{"type":`,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "payload wrong shape",
			frame:   `{"type":"chat","payload":"hello"}`,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "unknown type",
			frame:   `{"type":"dance"}`,
			wantErr: ErrUnknownType,
		},
		{
			name:    "join without payload",
			frame:   `{"type":"join"}`,
			wantErr: ErrMissingPayload,
		},
		{
			name:    "chat with null payload",
			frame:   `{"type":"chat","payload":null}`,
			wantErr: ErrMissingPayload,
		},
		{
			name:    "join without room",
			frame:   `{"type":"join","payload":{"senderId":"a"}}`,
			wantErr: ErrMissingRoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvents_WireShape(t *testing.T) {
	data, err := json.Marshal(&PresenceEvent{Type: TypeUserLeft, Name: "Ann", Users: []string{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"userLeft","name":"Ann","users":[]}`, string(data))

	data, err = json.Marshal(&TypingEvent{Type: TypeTyping, IsTyping: false, Name: "Ben"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"typing","isTyping":false,"name":"Ben"}`, string(data))
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2024, 1, 2, 8, 0, 0, 5_000_000, loc)
	assert.Equal(t, "2024-01-02T02:30:00.005Z", formatTimestamp(ts))
}
