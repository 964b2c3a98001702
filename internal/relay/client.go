package relay

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// DefaultMaxMessageSize bounds a single inbound frame.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultSendBuffer is the outbound queue length per connection.
	DefaultSendBuffer = 256
)

// Client is a wrapper for a single websocket connection. The pointer is the
// connection's identity inside the relay; ID only labels it in logs.
type Client struct {
	ID string

	relay *Relay
	conn  *websocket.Conn
	log   *zap.Logger

	// send is the buffered outbound queue. Only the relay loop writes to
	// it and closes it; WritePump drains it.
	send chan []byte

	// closed is set by the relay loop once send has been closed.
	closed bool

	readLimit int64
}

// ClientOptions tunes a connection's buffers.
type ClientOptions struct {
	SendBuffer     int
	MaxMessageSize int64
}

// NewClient wraps conn for use with r. Zero options fall back to defaults.
func NewClient(r *Relay, conn *websocket.Conn, opts ClientOptions) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}

	id := uuid.NewString()
	log := r.log.With(zap.String("conn", id))
	if conn != nil {
		log = log.With(zap.Stringer("remote", conn.RemoteAddr()))
	}

	return &Client{
		ID:        id,
		relay:     r,
		conn:      conn,
		log:       log,
		send:      make(chan []byte, opts.SendBuffer),
		readLimit: opts.MaxMessageSize,
	}
}

// ReadPump pumps frames from the websocket connection to the relay.
//
// The application runs ReadPump in a per-connection goroutine. Frames that
// fail to decode are logged and skipped; the connection stays open.
func (c *Client) ReadPump() {
	defer func() {
		c.relay.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}

		msg, err := Decode(data)
		if err != nil {
			c.log.Warn("discarding frame", zap.Error(err))
			c.relay.metrics.rejected.WithLabelValues(rejectReason(err)).Inc()
			continue
		}

		if !c.relay.deliver(c, msg) {
			return
		}
	}
}

// WritePump pumps queued frames from the relay to the websocket connection.
//
// A goroutine running WritePump is started for each connection. It is the
// only writer on the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The relay closed the queue: leave, drop or shutdown.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrMissingPayload), errors.Is(err, ErrMissingRoom):
		return "incomplete"
	default:
		return "malformed"
	}
}
