package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoom_SetSemantics(t *testing.T) {
	rm := newRoom("a-b")
	a, b := &Client{ID: "a"}, &Client{ID: "b"}

	assert.True(t, rm.Add(a))
	assert.False(t, rm.Add(a))
	assert.True(t, rm.Add(b))
	assert.Equal(t, []*Client{a, b}, rm.Members())

	assert.True(t, rm.Remove(a))
	assert.False(t, rm.Remove(a))
	assert.False(t, rm.Has(a))
	assert.Equal(t, 1, rm.Len())
}

func TestRoom_MembersIsACopy(t *testing.T) {
	rm := newRoom("x")
	a := &Client{ID: "a"}
	rm.Add(a)

	members := rm.Members()
	rm.Remove(a)

	assert.Len(t, members, 1)
	assert.Equal(t, 0, rm.Len())
}
