package postgres

import (
	"context"
	"database/sql"
	"errors"

	"edulive/internal/core/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) SaveWithSequence(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.RoomID == "" {
		return domain.ErrInvalidRoomID
	}
	exec := GetExecutor(ctx, r.db)
	var seq int64
	err := exec.QueryRowContext(ctx, `
        INSERT INTO room_sequences (room_id, last_seq)
        VALUES ($1, 1)
        ON CONFLICT (room_id)
        DO UPDATE SET last_seq = room_sequences.last_seq + 1
        RETURNING last_seq
    `, msg.RoomID).Scan(&seq)
	if err != nil {
		return err
	}
	msg.Seq = seq
	return exec.QueryRowContext(ctx, `
        INSERT INTO messages (room_id, user_id, seq, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `,
		msg.RoomID,
		msg.UserID,
		msg.Seq,
		msg.Content,
		msg.CreatedAt,
		msg.UpdatedAt,
	).Scan(&msg.ID)
}

func (r *MessageRepo) UpdateContent(ctx context.Context, id int64, content string) (*domain.ChatMessage, error) {
	exec := GetExecutor(ctx, r.db)
	var m domain.ChatMessage
	err := exec.QueryRowContext(ctx, `
        UPDATE messages
        SET content = $2, updated_at = now()
        WHERE id = $1
        RETURNING id, room_id, user_id, seq, content, created_at, updated_at
    `, id, content).Scan(
		&m.ID, &m.RoomID, &m.UserID, &m.Seq, &m.Content, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id int64) (*domain.ChatMessage, error) {
	exec := GetExecutor(ctx, r.db)
	var m domain.ChatMessage
	err := exec.QueryRowContext(ctx, `
        DELETE FROM messages
        WHERE id = $1
        RETURNING id, room_id, user_id, seq, content, created_at, updated_at
    `, id).Scan(
		&m.ID, &m.RoomID, &m.UserID, &m.Seq, &m.Content, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) GetByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	if roomID == "" {
		return nil, domain.ErrInvalidRoomID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, room_id, user_id, seq, content, created_at, updated_at
        FROM messages
        WHERE room_id = $1
        ORDER BY seq ASC
    `, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(
			&m.ID, &m.RoomID, &m.UserID, &m.Seq, &m.Content, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
