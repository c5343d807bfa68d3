package services

import (
	"context"
	"log/slog"
	"time"

	"edulive/internal/core/contracts"
	"edulive/internal/core/domain"
	"edulive/pkg/realtime"
)

// MessageService persists chat messages and fans the resulting events out to
// the room. Persist first, broadcast second: a client must never render a
// message the server could still lose.
type MessageService struct {
	log      *slog.Logger
	repo     domain.MessageRepository
	registry contracts.Registry
	tx       contracts.TxManager
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	registry contracts.Registry,
	tx contracts.TxManager,
) *MessageService {
	return &MessageService{log: log, repo: repo, registry: registry, tx: tx}
}

func (s *MessageService) Create(ctx context.Context, roomID string, userID int, content string) (*domain.ChatMessage, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidRoomID
	}
	now := time.Now()
	msg := &domain.ChatMessage{
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.SaveWithSequence(txCtx, msg)
	}); err != nil {
		s.log.ErrorContext(ctx, "messages - create - save with sequence failed", "room", roomID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "messages - create - saved", "room", roomID, "id", msg.ID, "seq", msg.Seq)
	s.broadcast(ctx, roomID, realtime.EventReceiveMessage, wireMessage(msg))
	return msg, nil
}

func (s *MessageService) Update(ctx context.Context, id int64, content string) (*domain.ChatMessage, error) {
	msg, err := s.repo.UpdateContent(ctx, id, content)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - update - update content failed", "id", id, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "messages - update - saved", "room", msg.RoomID, "id", id)
	s.broadcast(ctx, msg.RoomID, realtime.EventMessageUpdated, wireMessage(msg))
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, id int64) error {
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - delete - delete failed", "id", id, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "messages - delete - removed", "room", msg.RoomID, "id", id)
	// Deleted events carry the bare id.
	s.broadcast(ctx, msg.RoomID, realtime.EventMessageDeleted, id)
	return nil
}

func (s *MessageService) History(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidRoomID
	}
	msgs, err := s.repo.GetByRoom(ctx, roomID)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - history - get by room failed", "room", roomID, "err", err)
		return nil, err
	}
	return msgs, nil
}

func (s *MessageService) broadcast(ctx context.Context, room, event string, payload any) {
	f, err := realtime.NewFrame(event, payload)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - broadcast - frame build failed", "event", event, "err", err)
		return
	}
	s.registry.Broadcast(ctx, room, f)
}

func wireMessage(m *domain.ChatMessage) realtime.Message {
	return realtime.Message{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
