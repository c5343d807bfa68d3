package contracts

import (
	"context"

	"edulive/pkg/realtime"
)

// Registry is the in-memory fan-out layer: it tracks which clients are
// joined to which rooms and pushes event frames to them.
type Registry interface {
	// Join subscribes a client to a room.
	Join(room string, c Client)
	// Leave unsubscribes a client from a room.
	Leave(room string, c Client)
	// Drop removes the client from every room it is joined to.
	Drop(c Client)
	// Broadcast sends a frame to every client in a room.
	Broadcast(ctx context.Context, room string, f realtime.Frame)
	// BroadcastExcept sends a frame to every client in a room but one,
	// used to suppress typing echoes to the sender.
	BroadcastExcept(ctx context.Context, room string, exceptID string, f realtime.Frame)
}

// Client is the minimal surface the Registry needs to talk to one
// WebSocket connection.
type Client interface {
	ID() string
	UserID() int
	Send(ctx context.Context, data []byte) error
	Close()
}
