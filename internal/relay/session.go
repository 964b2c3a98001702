package relay

// Session is the metadata attached to a connection once it has joined.
type Session struct {
	RoomID   string
	SelfID   string
	PeerID   string
	SelfName string
	PeerName string

	// seq orders sessions by creation; peer lookup prefers the oldest.
	seq uint64
}

func (s *Session) update(p Participants) {
	s.RoomID = p.RoomID
	s.SelfID = p.SenderID
	s.PeerID = p.ReceiverID
	s.SelfName = p.SenderName
	s.PeerName = p.ReceiverName
}
