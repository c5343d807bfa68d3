package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulive/internal/core/contracts"
	"edulive/pkg/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRegistry struct {
	mu         sync.Mutex
	joined     map[string][]string // room → client ids
	broadcasts []broadcastCall
}

type broadcastCall struct {
	room     string
	exceptID string
	frame    realtime.Frame
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{joined: make(map[string][]string)}
}

func (r *fakeRegistry) Join(room string, c contracts.Client) {
	r.mu.Lock()
	r.joined[room] = append(r.joined[room], c.ID())
	r.mu.Unlock()
}

func (r *fakeRegistry) Leave(room string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.joined[room]
	for i, id := range ids {
		if id == c.ID() {
			r.joined[room] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (r *fakeRegistry) Drop(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined {
		ids := r.joined[room]
		for i, id := range ids {
			if id == c.ID() {
				r.joined[room] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
}

func (r *fakeRegistry) Broadcast(_ context.Context, room string, f realtime.Frame) {
	r.mu.Lock()
	r.broadcasts = append(r.broadcasts, broadcastCall{room: room, frame: f})
	r.mu.Unlock()
}

func (r *fakeRegistry) BroadcastExcept(_ context.Context, room string, exceptID string, f realtime.Frame) {
	r.mu.Lock()
	r.broadcasts = append(r.broadcasts, broadcastCall{room: room, exceptID: exceptID, frame: f})
	r.mu.Unlock()
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string][]int
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[string][]int)}
}

func (p *fakePresence) UpdateOnlineStatus(_ context.Context, room string, userID int, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.online[room] {
		if id == userID {
			return nil
		}
	}
	p.online[room] = append(p.online[room], userID)
	return nil
}

func (p *fakePresence) GetOnlineUsers(_ context.Context, room string) ([]int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.online[room]...), nil
}

func (p *fakePresence) RemoveUser(_ context.Context, room string, userID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := p.online[room]
	for i, id := range ids {
		if id == userID {
			p.online[room] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (p *fakePresence) ClearRoom(_ context.Context, room string) error {
	p.mu.Lock()
	delete(p.online, room)
	p.mu.Unlock()
	return nil
}

type stubClient struct {
	id     string
	userID int
}

func (c *stubClient) ID() string                         { return c.id }
func (c *stubClient) UserID() int                        { return c.userID }
func (c *stubClient) Send(context.Context, []byte) error { return nil }
func (c *stubClient) Close()                             {}

func cmd(t *testing.T, target string, payload any) realtime.Frame {
	t.Helper()
	f, err := realtime.NewFrame(target, payload)
	require.NoError(t, err)
	return f
}

func TestJoinCommandRegistersAndMarksPresence(t *testing.T) {
	reg := newFakeRegistry()
	pres := newFakePresence()
	svc := NewRoomService(testLogger(), reg, pres)
	c := &stubClient{id: "c1", userID: 7}

	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdJoinRoom, realtime.JoinPayload{Room: "student-notes-7-10"}))

	assert.Equal(t, []string{"c1"}, reg.joined["student-notes-7-10"])
	users, err := svc.OnlineUsers(context.Background(), "student-notes-7-10")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, users)
}

func TestLeaveCommandUnregistersAndClearsPresence(t *testing.T) {
	reg := newFakeRegistry()
	pres := newFakePresence()
	svc := NewRoomService(testLogger(), reg, pres)
	c := &stubClient{id: "c1", userID: 7}

	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdJoinRoom, realtime.JoinPayload{Room: "r"}))
	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdLeaveRoom, realtime.JoinPayload{Room: "r"}))

	assert.Empty(t, reg.joined["r"])
	users, err := svc.OnlineUsers(context.Background(), "r")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestTypingCommandFansOutExceptSender(t *testing.T) {
	reg := newFakeRegistry()
	svc := NewRoomService(testLogger(), reg, newFakePresence())
	c := &stubClient{id: "c1", userID: 7}

	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdSendTyping, realtime.TypingPayload{RoomID: "r", UserID: 7}))

	require.Len(t, reg.broadcasts, 1)
	call := reg.broadcasts[0]
	assert.Equal(t, "r", call.room)
	assert.Equal(t, "c1", call.exceptID)
	assert.Equal(t, realtime.EventTyping, call.frame.Target)

	var p realtime.TypingPayload
	require.NoError(t, json.Unmarshal(call.frame.Data, &p))
	assert.Equal(t, 7, p.UserID)
}

func TestMalformedCommandsAreDropped(t *testing.T) {
	reg := newFakeRegistry()
	svc := NewRoomService(testLogger(), reg, newFakePresence())
	c := &stubClient{id: "c1", userID: 7}

	svc.HandleCommand(context.Background(), c, realtime.Frame{Target: realtime.CmdJoinRoom, Data: json.RawMessage(`{`)})
	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdJoinRoom, realtime.JoinPayload{Room: ""}))
	svc.HandleCommand(context.Background(), c, realtime.Frame{Target: "Bogus", Data: json.RawMessage(`{}`)})

	assert.Empty(t, reg.joined)
	assert.Empty(t, reg.broadcasts)
}

func TestDisconnectDropsAllRooms(t *testing.T) {
	reg := newFakeRegistry()
	svc := NewRoomService(testLogger(), reg, newFakePresence())
	c := &stubClient{id: "c1", userID: 7}

	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdJoinRoom, realtime.JoinPayload{Room: "r1"}))
	svc.HandleCommand(context.Background(), c, cmd(t, realtime.CmdJoinRoom, realtime.JoinPayload{Room: "r2"}))
	svc.HandleDisconnect(context.Background(), c)

	assert.Empty(t, reg.joined["r1"])
	assert.Empty(t, reg.joined["r2"])
}
