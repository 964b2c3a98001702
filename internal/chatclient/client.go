package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("chat client closed")

// Client manages one WebSocket connection to the chat relay.
type Client struct {
	conn     *websocket.Conn
	incoming chan *Event
	outgoing chan *request
	done     chan struct{}
	once     sync.Once
}

// Dial connects to the relay's websocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:     conn,
		incoming: make(chan *Event, 64),
		outgoing: make(chan *request, 16),
		done:     make(chan struct{}),
	}

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return c, nil
}

// readPump reads events from the WebSocket connection. The Events channel
// is closed when the connection ends.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}

		select {
		case c.incoming <- &ev:
		case <-c.done:
			return
		}
	}
}

// writePump writes queued requests and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case req := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(req); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes what the caller queued before Close, e.g. a leave.
func (c *Client) flush() {
	for {
		select {
		case req := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(req); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) send(req *request) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.outgoing <- req:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Join enters the identity's room.
func (c *Client) Join(id Identity) error {
	p := id.payload()
	return c.send(&request{Type: TypeJoin, Payload: &p})
}

// Chat sends a text message to the identity's room.
func (c *Client) Chat(id Identity, text string) error {
	p := id.payload()
	p.Message = text
	return c.send(&request{Type: TypeChat, Payload: &p})
}

// Typing toggles the typing indicator seen by the peer.
func (c *Client) Typing(id Identity, typing bool) error {
	return c.send(&request{Type: TypeTyping, RoomID: id.RoomID(), IsTyping: &typing})
}

// Leave asks the relay to remove this connection; the relay closes it.
func (c *Client) Leave(id Identity) error {
	p := id.payload()
	return c.send(&request{Type: TypeLeave, Payload: &p})
}

// Events returns the channel of relay events.
func (c *Client) Events() <-chan *Event {
	return c.incoming
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// FetchRooms reads the relay's /rooms listing from baseURL.
func FetchRooms(ctx context.Context, baseURL string) (*RoomsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/rooms", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching rooms: %s", resp.Status)
	}

	var snap RoomsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding rooms: %w", err)
	}
	return &snap, nil
}
