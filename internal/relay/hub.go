package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned by calls made after the relay loop has exited.
var ErrStopped = errors.New("relay stopped")

// delivery is a decoded frame tagged with the connection that sent it.
type delivery struct {
	client *Client
	msg    Inbound
}

// Relay is the room coordinator. All of its state is owned by the Run
// goroutine; other goroutines talk to it over channels.
type Relay struct {
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time

	// clients are the open connections known to the loop.
	clients map[*Client]struct{}

	// rooms maps room IDs to their member sets.
	rooms map[string]*Room

	// sessions maps joined connections to their metadata.
	sessions map[*Client]*Session

	// sessionSeq numbers sessions in creation order.
	sessionSeq uint64

	register   chan *Client
	unregister chan *Client
	inbound    chan delivery
	snapshots  chan chan Snapshot
	done       chan struct{}
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay's logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Relay) { r.log = log }
}

// WithMetrics sets the collectors the relay reports to.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithClock overrides the source of chat timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// New creates an idle relay. Call Run to start processing.
func New(opts ...Option) *Relay {
	r := &Relay{
		log:        zap.NewNop(),
		now:        time.Now,
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]*Room),
		sessions:   make(map[*Client]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan delivery),
		snapshots:  make(chan chan Snapshot),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r
}

// Run processes registrations, frames and disconnects one at a time until
// ctx is cancelled. On exit every client queue is closed.
func (r *Relay) Run(ctx context.Context) error {
	defer close(r.done)
	defer r.shutdown()

	r.log.Info("relay started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", zap.Int("connections", len(r.clients)))
			return nil

		case c := <-r.register:
			r.addClient(c)

		case c := <-r.unregister:
			r.removeClient(c)

		case d := <-r.inbound:
			r.handle(d.client, d.msg)

		case reply := <-r.snapshots:
			reply <- r.snapshot()
		}

		r.metrics.observe(len(r.rooms), len(r.sessions), len(r.clients))
	}
}

// Register hands a new connection to the loop. It reports false if the
// relay is no longer running.
func (r *Relay) Register(c *Client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

// Unregister tells the loop that the connection's transport closed.
func (r *Relay) Unregister(c *Client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

func (r *Relay) deliver(c *Client, msg Inbound) bool {
	select {
	case r.inbound <- delivery{client: c, msg: msg}:
		return true
	case <-r.done:
		return false
	}
}

func (r *Relay) addClient(c *Client) {
	r.clients[c] = struct{}{}
	c.log.Info("client connected")
}

// removeClient runs disconnect cleanup for a transport close. Clients
// already released by leave or a failed send are ignored.
func (r *Relay) removeClient(c *Client) {
	if _, ok := r.clients[c]; !ok {
		return
	}
	r.detach(c, "", "")
	r.release(c)
	c.log.Info("client disconnected")
}

// release forgets c and closes its queue, which makes WritePump close the
// transport.
func (r *Relay) release(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	delete(r.clients, c)
	close(c.send)
}

func (r *Relay) handle(c *Client, msg Inbound) {
	if _, ok := r.clients[c]; !ok {
		// Frame raced with a drop; the connection is already gone.
		return
	}
	r.metrics.inbound.WithLabelValues(msg.Kind()).Inc()

	switch m := msg.(type) {
	case *Join:
		r.join(c, m)
	case *Chat:
		r.chat(c, m)
	case *Typing:
		r.typing(c, m)
	case *Leave:
		r.leave(c, m)
	default:
		c.log.Error("unhandled message kind", zap.String("type", msg.Kind()))
	}
}

func (r *Relay) join(c *Client, m *Join) {
	sess, ok := r.sessions[c]
	if !ok {
		r.sessionSeq++
		sess = &Session{seq: r.sessionSeq}
		r.sessions[c] = sess
	}
	sess.update(m.Participants)

	room, ok := r.rooms[m.RoomID]
	if !ok {
		room = newRoom(m.RoomID)
		r.rooms[m.RoomID] = room
		c.log.Debug("room created", zap.String("room", m.RoomID))
	}
	room.Add(c)

	// Pull the peer's existing connection into this room.
	if peer := r.findBySelfID(m.ReceiverID); peer != nil {
		room.Add(peer)
		r.sessions[peer].RoomID = m.RoomID
	}

	c.log.Info("joined room",
		zap.String("room", m.RoomID),
		zap.String("name", m.SenderName),
		zap.Int("members", room.Len()))

	r.broadcast(room.ID, &PresenceEvent{
		Type:  TypeUserJoined,
		Name:  m.SenderName,
		Users: r.memberNames(room),
	}, nil)
}

// findBySelfID returns the oldest session's connection whose local
// identity is id.
func (r *Relay) findBySelfID(id string) *Client {
	var (
		found *Client
		seq   uint64
	)
	for c, s := range r.sessions {
		if s.SelfID != id {
			continue
		}
		if found == nil || s.seq < seq {
			found, seq = c, s.seq
		}
	}
	return found
}

func (r *Relay) chat(c *Client, m *Chat) {
	if !r.inRoom(c, m.RoomID) {
		return
	}

	r.broadcast(m.RoomID, &ChatEvent{
		Type:         TypeChat,
		Message:      m.Message,
		SenderID:     m.SenderID,
		ReceiverID:   m.ReceiverID,
		SenderName:   m.SenderName,
		ReceiverName: m.ReceiverName,
		Timestamp:    formatTimestamp(r.now()),
	}, nil)

	c.log.Debug("chat relayed",
		zap.String("room", m.RoomID),
		zap.String("from", m.SenderID),
		zap.String("to", m.ReceiverID))
}

func (r *Relay) typing(c *Client, m *Typing) {
	if !r.inRoom(c, m.RoomID) {
		return
	}

	r.broadcast(m.RoomID, &TypingEvent{
		Type:     TypeTyping,
		IsTyping: m.IsTyping,
		Name:     r.sessions[c].SelfName,
	}, c)
}

func (r *Relay) leave(c *Client, m *Leave) {
	r.detach(c, m.RoomID, m.SenderName)
	r.release(c)
	c.log.Info("client left", zap.String("room", m.RoomID))
}

// inRoom reports whether c has a session for roomID.
func (r *Relay) inRoom(c *Client, roomID string) bool {
	sess, ok := r.sessions[c]
	return ok && sess.RoomID == roomID
}

// detach removes c from its room and forgets its session. roomID and name
// override the session's values when set. Memberships left behind by a
// re-join or an auto-join are swept as well, so no room keeps a closed
// connection.
func (r *Relay) detach(c *Client, roomID, name string) {
	if sess, ok := r.sessions[c]; ok {
		if roomID == "" {
			roomID = sess.RoomID
		}
		if name == "" {
			name = sess.SelfName
		}
	}

	if roomID != "" {
		r.removeMember(c, roomID, name)
	}
	for id, room := range r.rooms {
		if room.Has(c) {
			r.removeMember(c, id, name)
		}
	}

	delete(r.sessions, c)
}

func (r *Relay) removeMember(c *Client, roomID, name string) {
	room, ok := r.rooms[roomID]
	if !ok || !room.Remove(c) {
		return
	}

	if room.Len() == 0 {
		delete(r.rooms, roomID)
		c.log.Debug("room deleted", zap.String("room", roomID))
		return
	}

	r.broadcast(roomID, &PresenceEvent{
		Type:  TypeUserLeft,
		Name:  name,
		Users: r.memberNames(room),
	}, nil)
}

// memberNames resolves each member's display name from its session,
// skipping members without one.
func (r *Relay) memberNames(room *Room) []string {
	names := make([]string, 0, room.Len())
	for _, m := range room.members {
		if s, ok := r.sessions[m]; ok && s.SelfName != "" {
			names = append(names, s.SelfName)
		}
	}
	return names
}

// broadcast queues ev for every member of roomID except skip. A member
// whose queue is full is treated as disconnected once the loop is done.
func (r *Relay) broadcast(roomID string, ev any, skip *Client) {
	room, ok := r.rooms[roomID]
	if !ok {
		return
	}

	frame, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("encoding event", zap.String("room", roomID), zap.Error(err))
		return
	}

	var failed []*Client
	for _, m := range room.Members() {
		if m == skip || m.closed {
			continue
		}
		select {
		case m.send <- frame:
			r.metrics.outbound.Inc()
		default:
			failed = append(failed, m)
		}
	}

	for _, m := range failed {
		r.drop(m)
	}
}

// drop disconnects a recipient that could not accept a frame.
func (r *Relay) drop(c *Client) {
	if c.closed {
		return
	}
	r.metrics.sendFailures.Inc()
	c.log.Warn("send queue full, dropping client")
	r.release(c)
	r.detach(c, "", "")
}

func (r *Relay) shutdown() {
	for c := range r.clients {
		c.closed = true
		close(c.send)
	}
	r.clients = make(map[*Client]struct{})
	r.rooms = make(map[string]*Room)
	r.sessions = make(map[*Client]*Session)
	r.metrics.observe(0, 0, 0)
}

// RoomInfo describes one room in a Snapshot.
type RoomInfo struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// Snapshot is a point-in-time view of the relay's registries.
type Snapshot struct {
	Rooms       []RoomInfo `json:"rooms"`
	Connections int        `json:"connections"`
	Sessions    int        `json:"sessions"`
}

// Snapshot asks the loop for a copy of its state.
func (r *Relay) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.snapshots <- reply:
	case <-r.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Relay) snapshot() Snapshot {
	s := Snapshot{
		Rooms:       make([]RoomInfo, 0, len(r.rooms)),
		Connections: len(r.clients),
		Sessions:    len(r.sessions),
	}
	for id, room := range r.rooms {
		s.Rooms = append(s.Rooms, RoomInfo{ID: id, Members: r.memberNames(room)})
	}
	sort.Slice(s.Rooms, func(i, j int) bool { return s.Rooms[i].ID < s.Rooms[j].ID })
	return s
}
