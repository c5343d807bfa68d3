package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"edulive/internal/core/contracts"
	"edulive/pkg/realtime"
)

// presenceTTL is the inactivity threshold for the room presence sets.
const presenceTTL = 2 * time.Minute

// RoomService handles the hub commands a connected client can issue:
// JoinRoom, LeaveRoom and SendTyping. Typing bypasses persistence entirely;
// it is fanned out to the room and forgotten.
type RoomService struct {
	log      *slog.Logger
	registry contracts.Registry
	presence contracts.PresenceStore
}

func NewRoomService(log *slog.Logger, registry contracts.Registry, presence contracts.PresenceStore) *RoomService {
	return &RoomService{log: log, registry: registry, presence: presence}
}

// HandleCommand dispatches one inbound frame from a client. Unknown targets
// and malformed payloads are logged and dropped; a bad client frame must
// never take the connection down.
func (s *RoomService) HandleCommand(ctx context.Context, c contracts.Client, f realtime.Frame) {
	switch f.Target {
	case realtime.CmdJoinRoom:
		var p realtime.JoinPayload
		if err := json.Unmarshal(f.Data, &p); err != nil || p.Room == "" {
			s.log.WarnContext(ctx, "rooms - join - malformed payload", "client_id", c.ID(), "err", err)
			return
		}
		s.registry.Join(p.Room, c)
		if err := s.presence.UpdateOnlineStatus(ctx, p.Room, c.UserID(), presenceTTL); err != nil {
			s.log.WarnContext(ctx, "rooms - join - presence update failed", "room", p.Room, "err", err)
		}
		s.log.InfoContext(ctx, "rooms - join - client joined", "room", p.Room, "client_id", c.ID(), "user_id", c.UserID())

	case realtime.CmdLeaveRoom:
		var p realtime.JoinPayload
		if err := json.Unmarshal(f.Data, &p); err != nil || p.Room == "" {
			s.log.WarnContext(ctx, "rooms - leave - malformed payload", "client_id", c.ID(), "err", err)
			return
		}
		s.registry.Leave(p.Room, c)
		if err := s.presence.RemoveUser(ctx, p.Room, c.UserID()); err != nil {
			s.log.WarnContext(ctx, "rooms - leave - presence remove failed", "room", p.Room, "err", err)
		}
		s.log.InfoContext(ctx, "rooms - leave - client left", "room", p.Room, "client_id", c.ID())

	case realtime.CmdSendTyping:
		var p realtime.TypingPayload
		if err := json.Unmarshal(f.Data, &p); err != nil || p.RoomID == "" {
			s.log.WarnContext(ctx, "rooms - typing - malformed payload", "client_id", c.ID(), "err", err)
			return
		}
		f, err := realtime.NewFrame(realtime.EventTyping, p)
		if err != nil {
			return
		}
		s.registry.BroadcastExcept(ctx, p.RoomID, c.ID(), f)
		if err := s.presence.UpdateOnlineStatus(ctx, p.RoomID, p.UserID, presenceTTL); err != nil {
			s.log.WarnContext(ctx, "rooms - typing - presence update failed", "room", p.RoomID, "err", err)
		}

	default:
		s.log.WarnContext(ctx, "rooms - command - unknown target", "target", f.Target, "client_id", c.ID())
	}
}

// HandleDisconnect drops the client from every room it joined.
func (s *RoomService) HandleDisconnect(ctx context.Context, c contracts.Client) {
	s.registry.Drop(c)
	s.log.InfoContext(ctx, "rooms - disconnect - client dropped", "client_id", c.ID())
}

// OnlineUsers returns user ids currently active in a room.
func (s *RoomService) OnlineUsers(ctx context.Context, room string) ([]int, error) {
	users, err := s.presence.GetOnlineUsers(ctx, room)
	if err != nil {
		s.log.ErrorContext(ctx, "rooms - online users - lookup failed", "room", room, "err", err)
		return nil, err
	}
	return users, nil
}
