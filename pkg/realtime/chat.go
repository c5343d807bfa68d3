package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// ChatSession synchronizes the message list of one chat room. The room id is
// backend-issued; switching rooms with Join resets the list and re-subscribes.
type ChatSession struct {
	mgr    *Manager
	log    *slog.Logger
	userID int

	mu       sync.RWMutex
	roomID   string
	messages []Message
	typingFn func(TypingEvent)
}

func NewChatSession(tr *Transport, userID int, log *slog.Logger) *ChatSession {
	if log == nil {
		log = slog.Default()
	}
	return &ChatSession{
		mgr:    NewManager(tr, log),
		log:    log,
		userID: userID,
	}
}

// Join subscribes to roomID, tearing down any previous subscription first.
// Never blocks and never fails; watch Status for connectivity.
func (s *ChatSession) Join(ctx context.Context, roomID string) {
	s.mu.Lock()
	s.roomID = roomID
	s.mu.Unlock()
	s.mgr.Activate(ctx, roomID, s.handlers(roomID), func() {
		s.mu.Lock()
		if s.roomID == roomID {
			s.messages = nil
		}
		s.mu.Unlock()
	})
}

// Leave unsubscribes and closes the connection. Idempotent.
func (s *ChatSession) Leave() {
	s.mgr.Deactivate()
}

// Messages returns a snapshot copy of the reconciled message list, in
// arrival order.
func (s *ChatSession) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ChatSession) Status() ConnectivityStatus { return s.mgr.Status() }

// OnStatus registers a connectivity callback. Set before Join.
func (s *ChatSession) OnStatus(fn func(ConnectivityStatus)) { s.mgr.OnStatus(fn) }

// OnTyping registers the consumer of typing indicators. Indicators are
// ephemeral: not stored, not replayed, own-user echoes suppressed.
func (s *ChatSession) OnTyping(fn func(TypingEvent)) {
	s.mu.Lock()
	s.typingFn = fn
	s.mu.Unlock()
}

// SendTyping tells the room this user is typing. Best effort: silently
// no-ops unless the room is joined.
func (s *ChatSession) SendTyping() {
	s.mu.RLock()
	roomID := s.roomID
	s.mu.RUnlock()
	if roomID == "" {
		return
	}
	s.mgr.Signal(CmdSendTyping, TypingPayload{RoomID: roomID, UserID: s.userID})
}

// handlers builds the event table for one room. Every handler re-checks the
// room id carried by the event; the hub does not guarantee room-exact
// delivery for all kinds, and a stale in-flight join must not leak into a
// newer room's state.
func (s *ChatSession) handlers(roomID string) map[string]Handler {
	return map[string]Handler{
		EventReceiveMessage: func(data json.RawMessage) {
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				s.log.Warn("chat session - receive message - malformed payload", "err", err)
				return
			}
			if m.RoomID != roomID {
				return
			}
			s.mu.Lock()
			s.messages = appendMessage(s.messages, m)
			s.mu.Unlock()
		},
		EventMessageUpdated: func(data json.RawMessage) {
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				s.log.Warn("chat session - message updated - malformed payload", "err", err)
				return
			}
			if m.RoomID != roomID {
				return
			}
			s.mu.Lock()
			s.messages = updateMessage(s.messages, m)
			s.mu.Unlock()
		},
		EventMessageDeleted: func(data json.RawMessage) {
			// Carries only the id; removal of an unknown id is a no-op, which
			// also contains any cross-room leak for this kind.
			var id int64
			if err := json.Unmarshal(data, &id); err != nil {
				s.log.Warn("chat session - message deleted - malformed payload", "err", err)
				return
			}
			s.mu.Lock()
			s.messages = deleteMessage(s.messages, id)
			s.mu.Unlock()
		},
		EventTyping: func(data json.RawMessage) {
			var ev TypingEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				s.log.Warn("chat session - typing - malformed payload", "err", err)
				return
			}
			if ev.RoomID != roomID || ev.UserID == s.userID {
				return
			}
			s.mu.RLock()
			fn := s.typingFn
			s.mu.RUnlock()
			if fn != nil {
				fn(ev)
			}
		},
	}
}
