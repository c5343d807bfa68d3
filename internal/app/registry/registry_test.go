package registry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulive/pkg/realtime"
)

type fakeClient struct {
	id     string
	userID int

	mu   sync.Mutex
	sent [][]byte
}

func (c *fakeClient) ID() string  { return c.id }
func (c *fakeClient) UserID() int { return c.userID }
func (c *fakeClient) Close()      {}

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func frame(t *testing.T, target string, payload any) realtime.Frame {
	t.Helper()
	f, err := realtime.NewFrame(target, payload)
	require.NoError(t, err)
	return f
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	r := NewRegistry()
	a := &fakeClient{id: "a", userID: 1}
	b := &fakeClient{id: "b", userID: 2}
	c := &fakeClient{id: "c", userID: 3}
	r.Join("room-1", a)
	r.Join("room-1", b)
	r.Join("room-2", c)

	r.Broadcast(context.Background(), "room-1", frame(t, realtime.EventReceiveMessage, realtime.Message{ID: 1, RoomID: "room-1"}))

	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
	assert.Zero(t, c.received())

	var got realtime.Frame
	require.NoError(t, json.Unmarshal(a.sent[0], &got))
	assert.Equal(t, realtime.EventReceiveMessage, got.Target)
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	r := NewRegistry()
	a := &fakeClient{id: "a", userID: 1}
	b := &fakeClient{id: "b", userID: 2}
	r.Join("room-1", a)
	r.Join("room-1", b)

	r.BroadcastExcept(context.Background(), "room-1", "a", frame(t, realtime.EventTyping, realtime.TypingPayload{RoomID: "room-1", UserID: 1}))

	assert.Zero(t, a.received())
	assert.Equal(t, 1, b.received())
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	r := NewRegistry()
	a := &fakeClient{id: "a", userID: 1}
	r.Join("room-1", a)
	require.Equal(t, 1, r.RoomSize("room-1"))

	r.Leave("room-1", a)
	assert.Zero(t, r.RoomSize("room-1"))

	// Leaving again is harmless.
	r.Leave("room-1", a)
	r.Broadcast(context.Background(), "room-1", frame(t, realtime.EventReceiveMessage, realtime.Message{ID: 1, RoomID: "room-1"}))
	assert.Zero(t, a.received())
}

func TestDropLeavesAllRooms(t *testing.T) {
	r := NewRegistry()
	a := &fakeClient{id: "a", userID: 1}
	b := &fakeClient{id: "b", userID: 2}
	r.Join("room-1", a)
	r.Join("room-2", a)
	r.Join("room-1", b)

	r.Drop(a)

	assert.Equal(t, 1, r.RoomSize("room-1"))
	assert.Zero(t, r.RoomSize("room-2"))

	r.Broadcast(context.Background(), "room-1", frame(t, realtime.EventReceiveMessage, realtime.Message{ID: 1, RoomID: "room-1"}))
	assert.Zero(t, a.received())
	assert.Equal(t, 1, b.received())
}
