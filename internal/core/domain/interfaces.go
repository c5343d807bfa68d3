package domain

import "context"

// MessageRepository handles chat persistence and per-room ordering.
type MessageRepository interface {
	// SaveWithSequence increments the room sequence and inserts the message
	// in one TX, filling ID and Seq on the way out.
	SaveWithSequence(ctx context.Context, msg *ChatMessage) error
	UpdateContent(ctx context.Context, id int64, content string) (*ChatMessage, error)
	// Delete removes the message and returns the deleted row so callers can
	// scope the broadcast to its room.
	Delete(ctx context.Context, id int64) (*ChatMessage, error)
	GetByRoom(ctx context.Context, roomID string) ([]ChatMessage, error)
}

// NoteRepository handles student note persistence.
type NoteRepository interface {
	Create(ctx context.Context, n *StudentNote) error
	UpdateContent(ctx context.Context, id, content string) (*StudentNote, error)
	Delete(ctx context.Context, id string) (*StudentNote, error)
	GetByStudentLesson(ctx context.Context, studentID, lessonID int) ([]StudentNote, error)
}

// ProgressRepository handles watch-progress persistence.
type ProgressRepository interface {
	// UpsertSnapshot replaces the full record for a student-lesson pair.
	UpsertSnapshot(ctx context.Context, p *VideoProgress) error
	// PatchPosition updates playhead fields only; no-op with ErrProgressNotFound
	// when no snapshot row exists yet.
	PatchPosition(ctx context.Context, d *PositionDelta) error
	Get(ctx context.Context, studentID, lessonID int) (*VideoProgress, error)
}
