package registry

import (
	"context"
	"encoding/json"
	"sync"

	"edulive/internal/core/contracts"
	"edulive/pkg/realtime"
)

// Registry is the in-memory room fan-out. One client may be joined to any
// number of rooms; a room disappears when its last client leaves.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]contracts.Client // room → client id → client
	joins map[string]map[string]struct{}         // client id → joined rooms
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]contracts.Client),
		joins: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Join(room string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]contracts.Client)
	}
	r.rooms[room][c.ID()] = c
	if r.joins[c.ID()] == nil {
		r.joins[c.ID()] = make(map[string]struct{})
	}
	r.joins[c.ID()][room] = struct{}{}
}

func (r *Registry) Leave(room string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, c.ID())
}

func (r *Registry) Drop(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joins[c.ID()] {
		r.leaveLocked(room, c.ID())
	}
	delete(r.joins, c.ID())
}

func (r *Registry) leaveLocked(room, clientID string) {
	delete(r.rooms[room], clientID)
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	delete(r.joins[clientID], room)
}

func (r *Registry) Broadcast(ctx context.Context, room string, f realtime.Frame) {
	r.send(ctx, room, "", f)
}

func (r *Registry) BroadcastExcept(ctx context.Context, room string, exceptID string, f realtime.Frame) {
	r.send(ctx, room, exceptID, f)
}

func (r *Registry) send(ctx context.Context, room, exceptID string, f realtime.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.rooms[room] {
		if id == exceptID {
			continue
		}
		_ = c.Send(ctx, data)
	}
}

// RoomSize reports how many clients a room currently holds.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
