package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// VideoSession synchronizes the watch-progress record for one
// student-lesson pair. Full snapshots replace the record; position deltas
// patch playhead fields only and are dropped until a snapshot has arrived.
type VideoSession struct {
	mgr *Manager
	log *slog.Logger
	now func() time.Time

	mu        sync.RWMutex
	studentID int
	lessonID  int
	progress  *VideoProgress
}

func NewVideoSession(tr *Transport, log *slog.Logger) *VideoSession {
	if log == nil {
		log = slog.Default()
	}
	return &VideoSession{mgr: NewManager(tr, log), log: log, now: time.Now}
}

// Track subscribes to the video room for (studentID, lessonID). Re-tracking
// with different keys resets the record and re-subscribes.
func (s *VideoSession) Track(ctx context.Context, studentID, lessonID int) {
	s.mu.Lock()
	s.studentID, s.lessonID = studentID, lessonID
	s.mu.Unlock()
	room := VideoRoom(studentID, lessonID)
	s.mgr.Activate(ctx, room, s.handlers(studentID, lessonID), func() {
		s.mu.Lock()
		if s.studentID == studentID && s.lessonID == lessonID {
			s.progress = nil
		}
		s.mu.Unlock()
	})
}

// Stop unsubscribes and closes the connection. Idempotent.
func (s *VideoSession) Stop() {
	s.mgr.Deactivate()
}

// Progress returns the current record and whether a snapshot has arrived.
func (s *VideoSession) Progress() (VideoProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress == nil {
		return VideoProgress{}, false
	}
	return *s.progress, true
}

func (s *VideoSession) Status() ConnectivityStatus { return s.mgr.Status() }

func (s *VideoSession) OnStatus(fn func(ConnectivityStatus)) { s.mgr.OnStatus(fn) }

func (s *VideoSession) handlers(studentID, lessonID int) map[string]Handler {
	return map[string]Handler{
		EventProgressUpdated: func(data json.RawMessage) {
			var p VideoProgress
			if err := json.Unmarshal(data, &p); err != nil {
				s.log.Warn("video session - progress updated - malformed payload", "err", err)
				return
			}
			if p.StudentID != studentID || p.LessonID != lessonID {
				return
			}
			s.mu.Lock()
			s.progress = applySnapshot(p)
			s.mu.Unlock()
		},
		EventPositionChanged: func(data json.RawMessage) {
			var d PositionDelta
			if err := json.Unmarshal(data, &d); err != nil {
				s.log.Warn("video session - position changed - malformed payload", "err", err)
				return
			}
			if d.StudentID != studentID || d.LessonID != lessonID {
				return
			}
			s.mu.Lock()
			s.progress = applyDelta(s.progress, d, s.now())
			s.mu.Unlock()
		},
	}
}
