package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Inbound message types (C2S).
const (
	TypeJoin   = "join"
	TypeChat   = "chat"
	TypeLeave  = "leave"
	TypeTyping = "typing"
)

// Outbound event types (S2C). Chat and typing reuse the inbound names.
const (
	TypeUserJoined = "userJoined"
	TypeUserLeft   = "userLeft"
)

var (
	// ErrMalformedFrame is returned when a frame is not a JSON object.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownType is returned for a frame whose type is not one of the
	// four inbound kinds.
	ErrUnknownType = errors.New("unknown message type")

	// ErrMissingPayload is returned when a join, chat or leave frame has
	// no payload object.
	ErrMissingPayload = errors.New("missing payload")

	// ErrMissingRoom is returned when a join names no room.
	ErrMissingRoom = errors.New("missing room id")
)

// Inbound is one decoded client frame. The set of implementations is
// closed: Join, Chat, Leave and Typing.
type Inbound interface {
	inbound()
	Kind() string
}

// Participants is the identity block the client sends with join, chat and
// leave. Sender is the local participant, Receiver the peer.
type Participants struct {
	RoomID       string `json:"roomId"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
}

// Join asks the relay to put the connection into a room.
type Join struct {
	Participants
}

// Chat is a text message for the room.
type Chat struct {
	Participants
	Message string `json:"message"`
}

// Leave removes the connection from its room and closes it.
type Leave struct {
	Participants
}

// Typing toggles the typing indicator for the other room members.
type Typing struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

func (*Join) inbound()   {}
func (*Chat) inbound()   {}
func (*Leave) inbound()  {}
func (*Typing) inbound() {}

func (*Join) Kind() string   { return TypeJoin }
func (*Chat) Kind() string   { return TypeChat }
func (*Leave) Kind() string  { return TypeLeave }
func (*Typing) Kind() string { return TypeTyping }

// envelope is the raw shape of every inbound frame. Typing is sent flat by
// some clients and inside payload by others, so both are read.
type envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	IsTyping bool            `json:"isTyping,omitempty"`
}

func (e *envelope) hasPayload() bool {
	return len(e.Payload) > 0 && string(e.Payload) != "null"
}

// Decode parses a single frame into its Inbound message.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	switch env.Type {
	case TypeJoin:
		msg := &Join{}
		if err := env.decodePayload(&msg.Participants); err != nil {
			return nil, err
		}
		if msg.RoomID == "" {
			return nil, ErrMissingRoom
		}
		return msg, nil

	case TypeChat:
		msg := &Chat{}
		if err := env.decodePayload(msg); err != nil {
			return nil, err
		}
		return msg, nil

	case TypeLeave:
		msg := &Leave{}
		if err := env.decodePayload(&msg.Participants); err != nil {
			return nil, err
		}
		return msg, nil

	case TypeTyping:
		msg := &Typing{RoomID: env.RoomID, IsTyping: env.IsTyping}
		if env.hasPayload() {
			if err := json.Unmarshal(env.Payload, msg); err != nil {
				return nil, fmt.Errorf("%w: typing payload: %v", ErrMalformedFrame, err)
			}
		}
		return msg, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func (e *envelope) decodePayload(v any) error {
	if !e.hasPayload() {
		return fmt.Errorf("%w: %s", ErrMissingPayload, e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, e.Type, err)
	}
	return nil
}

// PresenceEvent announces a member joining or leaving a room.
type PresenceEvent struct {
	Type  string   `json:"type"`
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

// ChatEvent is a chat message as delivered to room members.
type ChatEvent struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
	Timestamp    string `json:"timestamp"`
}

// TypingEvent tells the other members that someone is (or stopped) typing.
type TypingEvent struct {
	Type     string `json:"type"`
	IsTyping bool   `json:"isTyping"`
	Name     string `json:"name"`
}

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
