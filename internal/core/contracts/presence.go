package contracts

import (
	"context"
	"time"
)

// PresenceStore tracks which users are live in a room, TTL-based.
type PresenceStore interface {
	// UpdateOnlineStatus marks a user active in a room now.
	UpdateOnlineStatus(ctx context.Context, room string, userID int, ttl time.Duration) error
	// GetOnlineUsers returns user ids active within the freshness window.
	GetOnlineUsers(ctx context.Context, room string) ([]int, error)
	// RemoveUser drops a user from a room's presence set.
	RemoveUser(ctx context.Context, room string, userID int) error
	// ClearRoom deletes the whole presence set for a room.
	ClearRoom(ctx context.Context, room string) error
}
