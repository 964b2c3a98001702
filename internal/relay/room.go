package relay

// Room is a named set of connections that receive each other's events.
// Members keep join order so presence lists are stable.
type Room struct {
	// ID is the room identifier, by convention the two participant ids
	// sorted and joined with a hyphen.
	ID string

	members []*Client
}

func newRoom(id string) *Room {
	return &Room{ID: id}
}

// Add inserts c unless it is already a member.
func (rm *Room) Add(c *Client) bool {
	if rm.Has(c) {
		return false
	}
	rm.members = append(rm.members, c)
	return true
}

// Remove drops c from the member set and reports whether it was present.
func (rm *Room) Remove(c *Client) bool {
	for i, m := range rm.members {
		if m == c {
			rm.members = append(rm.members[:i], rm.members[i+1:]...)
			return true
		}
	}
	return false
}

func (rm *Room) Has(c *Client) bool {
	for _, m := range rm.members {
		if m == c {
			return true
		}
	}
	return false
}

func (rm *Room) Len() int {
	return len(rm.members)
}

// Members returns a copy of the member list, safe to iterate while the
// room is being modified.
func (rm *Room) Members() []*Client {
	out := make([]*Client, len(rm.members))
	copy(out, rm.members)
	return out
}
