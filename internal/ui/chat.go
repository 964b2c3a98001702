package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akashsiripuram/Nexus/internal/chatclient"
)

// Sender is the part of the chat client the model drives.
type Sender interface {
	Chat(id chatclient.Identity, text string) error
	Typing(id chatclient.Identity, typing bool) error
	Leave(id chatclient.Identity) error
}

type eventMsg struct{ ev *chatclient.Event }

type disconnectedMsg struct{}

// chrome is the number of rows around the message viewport.
const chrome = 5

// ChatModel is the bubbletea model for a one-to-one chat room.
type ChatModel struct {
	sender Sender
	events <-chan *chatclient.Event
	self   chatclient.Identity

	input    textinput.Model
	viewport viewport.Model

	lines      []string
	online     []string
	peerTyping bool
	typing     bool
	connected  bool
	err        error
}

// NewChatModel creates a chat model reading relay events from events.
func NewChatModel(s Sender, events <-chan *chatclient.Event, self chatclient.Identity) ChatModel {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 2000
	input.Width = 76
	input.Focus()

	return ChatModel{
		sender:    s,
		events:    events,
		self:      self,
		input:     input,
		viewport:  viewport.New(80, 20),
		connected: true,
	}
}

func waitForEvent(events <-chan *chatclient.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return disconnectedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.connected {
				m.sender.Leave(m.self)
			}
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			m.setTyping(false)
			if text != "" && m.connected {
				if err := m.sender.Chat(m.self, text); err != nil {
					m.err = err
				}
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.setTyping(m.input.Value() != "")
		return m, cmd

	case eventMsg:
		m.apply(msg.ev)
		return m, waitForEvent(m.events)

	case disconnectedMsg:
		m.connected = false
		m.peerTyping = false
		m.lines = append(m.lines, SystemStyle.Render("disconnected from relay"))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// setTyping tells the peer about typing state changes only.
func (m *ChatModel) setTyping(typing bool) {
	if typing == m.typing || !m.connected {
		return
	}
	m.typing = typing
	if err := m.sender.Typing(m.self, typing); err != nil {
		m.err = err
	}
}

func (m *ChatModel) apply(ev *chatclient.Event) {
	switch ev.Type {
	case chatclient.TypeChat:
		if ev.SenderID != m.self.SelfID {
			m.peerTyping = false
		}
	case chatclient.TypeUserJoined, chatclient.TypeUserLeft:
		m.online = ev.Users
	case chatclient.TypeTyping:
		m.peerTyping = ev.IsTyping
		return
	}

	if line := FormatEvent(ev, m.self.SelfID); line != "" {
		m.lines = append(m.lines, line)
		m.refresh()
	}
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// FormatEvent renders one relay event as a transcript line. Events that do
// not belong in the transcript return "".
func FormatEvent(ev *chatclient.Event, selfID string) string {
	switch ev.Type {
	case chatclient.TypeChat:
		name := PeerNameStyle.Render(ev.SenderName)
		if ev.SenderID == selfID {
			name = SelfNameStyle.Render(ev.SenderName)
		}
		return fmt.Sprintf("%s %s: %s", TimestampStyle.Render(clock(ev.Timestamp)), name, ev.Message)
	case chatclient.TypeUserJoined:
		return SystemStyle.Render(ev.Name + " joined the chat")
	case chatclient.TypeUserLeft:
		return SystemStyle.Render(ev.Name + " left the chat")
	default:
		return ""
	}
}

func clock(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return "--:--"
	}
	return t.Local().Format("15:04")
}

func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(IconPeer + " " + m.self.PeerName))
	if len(m.online) > 0 {
		b.WriteString(" " + MutedStyle.Render("online: "+strings.Join(m.online, ", ")))
	}
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(m.err.Error()))
	case m.peerTyping:
		b.WriteString(MutedStyle.Render(m.self.PeerName + " is typing..."))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("enter send • esc leave • " + IconRoom + " " + m.self.RoomID()))

	return b.String()
}
