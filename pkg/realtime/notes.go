package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// NotesSession synchronizes the note list for one student-lesson pair.
type NotesSession struct {
	mgr *Manager
	log *slog.Logger

	mu        sync.RWMutex
	studentID int
	lessonID  int
	notes     []Note
}

func NewNotesSession(tr *Transport, log *slog.Logger) *NotesSession {
	if log == nil {
		log = slog.Default()
	}
	return &NotesSession{mgr: NewManager(tr, log), log: log}
}

// Track subscribes to the notes room for (studentID, lessonID). Calling it
// again with different keys resets state and re-subscribes; a still-pending
// subscription for the old keys is abandoned and can no longer touch state.
func (s *NotesSession) Track(ctx context.Context, studentID, lessonID int) {
	s.mu.Lock()
	s.studentID, s.lessonID = studentID, lessonID
	s.mu.Unlock()
	room := NotesRoom(studentID, lessonID)
	s.mgr.Activate(ctx, room, s.handlers(studentID, lessonID), func() {
		s.mu.Lock()
		if s.studentID == studentID && s.lessonID == lessonID {
			s.notes = nil
		}
		s.mu.Unlock()
	})
}

// Stop unsubscribes and closes the connection. Idempotent.
func (s *NotesSession) Stop() {
	s.mgr.Deactivate()
}

// Notes returns a snapshot copy of the note list, newest first.
func (s *NotesSession) Notes() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

func (s *NotesSession) Status() ConnectivityStatus { return s.mgr.Status() }

func (s *NotesSession) OnStatus(fn func(ConnectivityStatus)) { s.mgr.OnStatus(fn) }

func (s *NotesSession) handlers(studentID, lessonID int) map[string]Handler {
	match := func(n Note) bool {
		return n.StudentID == studentID && n.LessonID == lessonID
	}
	return map[string]Handler{
		EventNoteCreated: func(data json.RawMessage) {
			var n Note
			if err := json.Unmarshal(data, &n); err != nil {
				s.log.Warn("notes session - note created - malformed payload", "err", err)
				return
			}
			if !match(n) {
				return
			}
			s.mu.Lock()
			s.notes = appendNote(s.notes, n)
			s.mu.Unlock()
		},
		EventNoteUpdated: func(data json.RawMessage) {
			var n Note
			if err := json.Unmarshal(data, &n); err != nil {
				s.log.Warn("notes session - note updated - malformed payload", "err", err)
				return
			}
			if !match(n) {
				return
			}
			s.mu.Lock()
			s.notes = updateNote(s.notes, n)
			s.mu.Unlock()
		},
		EventNoteDeleted: func(data json.RawMessage) {
			var id string
			if err := json.Unmarshal(data, &id); err != nil {
				s.log.Warn("notes session - note deleted - malformed payload", "err", err)
				return
			}
			s.mu.Lock()
			s.notes = deleteNote(s.notes, id)
			s.mu.Unlock()
		},
	}
}
