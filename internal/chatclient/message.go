package chatclient

import (
	"sort"
	"strings"
)

// Message type constants.
const (
	TypeJoin   = "join"
	TypeChat   = "chat"
	TypeLeave  = "leave"
	TypeTyping = "typing"

	TypeUserJoined = "userJoined"
	TypeUserLeft   = "userLeft"
)

// Identity is who is talking to whom.
type Identity struct {
	SelfID   string
	PeerID   string
	SelfName string
	PeerName string
}

// RoomID returns the room shared by two participants: both ids sorted and
// joined with a hyphen.
func RoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}

// RoomID is the room this identity chats in.
func (id Identity) RoomID() string {
	return RoomID(id.SelfID, id.PeerID)
}

func (id Identity) payload() payload {
	return payload{
		RoomID:       id.RoomID(),
		SenderID:     id.SelfID,
		ReceiverID:   id.PeerID,
		SenderName:   id.SelfName,
		ReceiverName: id.PeerName,
	}
}

// payload is the body of join, chat and leave frames.
type payload struct {
	Message      string `json:"message,omitempty"`
	RoomID       string `json:"roomId"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
}

type request struct {
	Type    string   `json:"type"`
	Payload *payload `json:"payload,omitempty"`

	// typing is sent flat
	RoomID   string `json:"roomId,omitempty"`
	IsTyping *bool  `json:"isTyping,omitempty"`
}

// Event is any frame the relay sends. Fields not used by Type are empty.
type Event struct {
	Type string `json:"type"`

	// userJoined, userLeft, typing
	Name  string   `json:"name,omitempty"`
	Users []string `json:"users,omitempty"`

	// chat
	Message      string `json:"message,omitempty"`
	SenderID     string `json:"senderId,omitempty"`
	ReceiverID   string `json:"receiverId,omitempty"`
	SenderName   string `json:"senderName,omitempty"`
	ReceiverName string `json:"receiverName,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`

	// typing
	IsTyping bool `json:"isTyping,omitempty"`
}

// RoomInfo is one entry of the relay's /rooms listing.
type RoomInfo struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// RoomsSnapshot is the relay's /rooms response.
type RoomsSnapshot struct {
	Rooms       []RoomInfo `json:"rooms"`
	Connections int        `json:"connections"`
	Sessions    int        `json:"sessions"`
}
