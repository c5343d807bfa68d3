package services

import (
	"context"
	"log/slog"
	"time"

	"edulive/internal/core/contracts"
	"edulive/internal/core/domain"
	"edulive/pkg/realtime"

	"github.com/google/uuid"
)

// NoteService persists student notes and pushes note events to the
// student-lesson notes room.
type NoteService struct {
	log      *slog.Logger
	repo     domain.NoteRepository
	registry contracts.Registry
}

func NewNoteService(log *slog.Logger, repo domain.NoteRepository, registry contracts.Registry) *NoteService {
	return &NoteService{log: log, repo: repo, registry: registry}
}

func (s *NoteService) Create(ctx context.Context, studentID, lessonID int, content string) (*domain.StudentNote, error) {
	now := time.Now()
	note := &domain.StudentNote{
		ID:        uuid.NewString(),
		StudentID: studentID,
		LessonID:  lessonID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		s.log.ErrorContext(ctx, "notes - create - insert failed", "student_id", studentID, "lesson_id", lessonID, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "notes - create - saved", "id", note.ID, "student_id", studentID, "lesson_id", lessonID)
	s.broadcast(ctx, note, realtime.EventNoteCreated, wireNote(note))
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, id, content string) (*domain.StudentNote, error) {
	note, err := s.repo.UpdateContent(ctx, id, content)
	if err != nil {
		s.log.ErrorContext(ctx, "notes - update - update content failed", "id", id, "err", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "notes - update - saved", "id", id)
	s.broadcast(ctx, note, realtime.EventNoteUpdated, wireNote(note))
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	note, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "notes - delete - delete failed", "id", id, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "notes - delete - removed", "id", id)
	// Deleted events carry the bare id.
	s.broadcast(ctx, note, realtime.EventNoteDeleted, id)
	return nil
}

func (s *NoteService) List(ctx context.Context, studentID, lessonID int) ([]domain.StudentNote, error) {
	notes, err := s.repo.GetByStudentLesson(ctx, studentID, lessonID)
	if err != nil {
		s.log.ErrorContext(ctx, "notes - list - get by student lesson failed", "student_id", studentID, "lesson_id", lessonID, "err", err)
		return nil, err
	}
	return notes, nil
}

func (s *NoteService) broadcast(ctx context.Context, note *domain.StudentNote, event string, payload any) {
	room := realtime.NotesRoom(note.StudentID, note.LessonID)
	f, err := realtime.NewFrame(event, payload)
	if err != nil {
		s.log.ErrorContext(ctx, "notes - broadcast - frame build failed", "event", event, "err", err)
		return
	}
	s.registry.Broadcast(ctx, room, f)
}

func wireNote(n *domain.StudentNote) realtime.Note {
	return realtime.Note{
		ID:        n.ID,
		StudentID: n.StudentID,
		LessonID:  n.LessonID,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	}
}
