package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashsiripuram/Nexus/internal/chatclient"
)

type fakeSender struct {
	chats   []string
	typing  []bool
	leaves  int
	chatErr error
}

func (f *fakeSender) Chat(_ chatclient.Identity, text string) error {
	f.chats = append(f.chats, text)
	return f.chatErr
}

func (f *fakeSender) Typing(_ chatclient.Identity, typing bool) error {
	f.typing = append(f.typing, typing)
	return nil
}

func (f *fakeSender) Leave(chatclient.Identity) error {
	f.leaves++
	return nil
}

var alice = chatclient.Identity{SelfID: "u1", PeerID: "u2", SelfName: "Alice", PeerName: "Bob"}

func update(t *testing.T, m ChatModel, msg tea.Msg) (ChatModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	cm, ok := next.(ChatModel)
	require.True(t, ok)
	return cm, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChatModel_TypingAndSend(t *testing.T) {
	fs := &fakeSender{}
	m := NewChatModel(fs, nil, alice)

	m, _ = update(t, m, key("h"))
	m, _ = update(t, m, key("i"))
	assert.Equal(t, []bool{true}, fs.typing, "typing is only sent on change")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"hi"}, fs.chats)
	assert.Equal(t, []bool{true, false}, fs.typing)
	assert.Empty(t, m.input.Value())

	// Blank lines are not sent.
	m, _ = update(t, m, key(" "))
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"hi"}, fs.chats)
}

func TestChatModel_Events(t *testing.T) {
	events := make(chan *chatclient.Event, 1)
	m := NewChatModel(&fakeSender{}, events, alice)

	m, cmd := update(t, m, eventMsg{ev: &chatclient.Event{
		Type: chatclient.TypeUserJoined, Name: "Bob", Users: []string{"Alice", "Bob"},
	}})
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"Alice", "Bob"}, m.online)

	m, _ = update(t, m, eventMsg{ev: &chatclient.Event{Type: chatclient.TypeTyping, IsTyping: true, Name: "Bob"}})
	assert.True(t, m.peerTyping)
	assert.Contains(t, m.View(), "Bob is typing")

	m, _ = update(t, m, eventMsg{ev: &chatclient.Event{
		Type: chatclient.TypeChat, Message: "hello", SenderID: "u2", SenderName: "Bob",
		Timestamp: "2024-05-01T12:30:45.123Z",
	}})
	assert.False(t, m.peerTyping)
	require.Len(t, m.lines, 2)
	assert.Contains(t, m.lines[1], "hello")

	// The follow-up command waits for the next relay event.
	events <- &chatclient.Event{Type: chatclient.TypeUserLeft, Name: "Bob", Users: []string{"Alice"}}
	msg := waitForEvent(events)()
	m, _ = update(t, m, msg)
	assert.Equal(t, []string{"Alice"}, m.online)

	close(events)
	m, _ = update(t, m, waitForEvent(events)())
	assert.False(t, m.connected)
	assert.Contains(t, m.lines[len(m.lines)-1], "disconnected")
}

func TestChatModel_EscLeaves(t *testing.T) {
	fs := &fakeSender{}
	m := NewChatModel(fs, nil, alice)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, fs.leaves)
}

func TestFormatEvent(t *testing.T) {
	line := FormatEvent(&chatclient.Event{
		Type: chatclient.TypeChat, Message: "hi", SenderID: "u1", SenderName: "Alice", Timestamp: "bad",
	}, "u1")
	assert.Contains(t, line, "Alice")
	assert.Contains(t, line, "hi")
	assert.Contains(t, line, "--:--")

	assert.Contains(t, FormatEvent(&chatclient.Event{Type: chatclient.TypeUserLeft, Name: "Bob"}, "u1"), "Bob left the chat")
	assert.Empty(t, FormatEvent(&chatclient.Event{Type: chatclient.TypeTyping}, "u1"))
}

func TestRoomsView(t *testing.T) {
	view := RoomsView(&chatclient.RoomsSnapshot{
		Rooms:       []chatclient.RoomInfo{{ID: "u1-u2", Members: []string{"Alice", "Bob"}}},
		Connections: 2,
		Sessions:    2,
	})
	assert.Contains(t, view, "u1-u2")
	assert.Contains(t, view, "Alice, Bob")
	assert.Contains(t, view, "2 connections")

	assert.Contains(t, RoomsView(&chatclient.RoomsSnapshot{}), "No active rooms")
}
