package chatclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomID(t *testing.T) {
	assert.Equal(t, "64a-64b", RoomID("64b", "64a"))
	assert.Equal(t, RoomID("x", "y"), RoomID("y", "x"))

	id := Identity{SelfID: "u2", PeerID: "u1"}
	assert.Equal(t, "u1-u2", id.RoomID())
}

func TestRequest_WireShape(t *testing.T) {
	id := Identity{SelfID: "u1", PeerID: "u2", SelfName: "Alice", PeerName: "Bob"}

	p := id.payload()
	p.Message = "hi"
	data, err := json.Marshal(&request{Type: TypeChat, Payload: &p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chat","payload":{"message":"hi","roomId":"u1-u2","senderId":"u1","receiverId":"u2","senderName":"Alice","receiverName":"Bob"}}`, string(data))

	off := false
	data, err = json.Marshal(&request{Type: TypeTyping, RoomID: id.RoomID(), IsTyping: &off})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"typing","roomId":"u1-u2","isTyping":false}`, string(data))
}
