package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"edulive/internal/core/contracts"
	"edulive/internal/core/domain"
	"edulive/pkg/realtime"
)

// ProgressService handles watch progress. Snapshots are persisted
// synchronously and broadcast. Position deltas arrive every few seconds per
// viewer, so they are broadcast immediately and queued on a redis stream for
// the worker to persist; a delta lost between broadcast and persist is
// recovered by the next snapshot.
type ProgressService struct {
	log      *slog.Logger
	repo     domain.ProgressRepository
	registry contracts.Registry
	queue    contracts.DeltaQueue
	stream   string
}

func NewProgressService(
	log *slog.Logger,
	repo domain.ProgressRepository,
	registry contracts.Registry,
	queue contracts.DeltaQueue,
	stream string,
) *ProgressService {
	return &ProgressService{log: log, repo: repo, registry: registry, queue: queue, stream: stream}
}

func (s *ProgressService) SaveSnapshot(ctx context.Context, p *domain.VideoProgress) error {
	p.UpdatedAt = time.Now()
	if err := s.repo.UpsertSnapshot(ctx, p); err != nil {
		s.log.ErrorContext(ctx, "progress - save snapshot - upsert failed", "student_id", p.StudentID, "lesson_id", p.LessonID, "err", err)
		return err
	}
	s.log.InfoContext(ctx, "progress - save snapshot - saved", "student_id", p.StudentID, "lesson_id", p.LessonID)
	room := realtime.VideoRoom(p.StudentID, p.LessonID)
	s.broadcast(ctx, room, realtime.EventProgressUpdated, realtime.VideoProgress{
		StudentID:       p.StudentID,
		LessonID:        p.LessonID,
		TotalDuration:   p.TotalDuration,
		WatchedDuration: p.WatchedDuration,
		CurrentTime:     p.CurrentTime,
		IsPlaying:       p.IsPlaying,
		UpdatedAt:       p.UpdatedAt,
	})
	return nil
}

// RecordPosition broadcasts the delta right away and enqueues it for async
// persistence. The broadcast is not gated on the queue: live viewers matter
// more than a durable playhead.
func (s *ProgressService) RecordPosition(ctx context.Context, d *domain.PositionDelta) error {
	d.RecordedAt = time.Now()
	room := realtime.VideoRoom(d.StudentID, d.LessonID)
	s.broadcast(ctx, room, realtime.EventPositionChanged, realtime.PositionDelta{
		StudentID:   d.StudentID,
		LessonID:    d.LessonID,
		CurrentTime: d.CurrentTime,
		IsPlaying:   d.IsPlaying,
	})

	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.queue.Publish(ctx, s.stream, raw); err != nil {
		s.log.ErrorContext(ctx, "progress - record position - publish to stream failed", "stream", s.stream, "err", err)
		return err
	}
	s.log.DebugContext(ctx, "progress - record position - queued", "student_id", d.StudentID, "lesson_id", d.LessonID)
	return nil
}

// PersistPosition is the worker-side half of RecordPosition.
func (s *ProgressService) PersistPosition(ctx context.Context, d *domain.PositionDelta) error {
	if err := s.repo.PatchPosition(ctx, d); err != nil {
		if errors.Is(err, domain.ErrProgressNotFound) {
			// No snapshot row yet; nothing to patch. Drop the delta.
			s.log.WarnContext(ctx, "progress - persist position - no snapshot row", "student_id", d.StudentID, "lesson_id", d.LessonID)
			return nil
		}
		return err
	}
	return nil
}

func (s *ProgressService) Get(ctx context.Context, studentID, lessonID int) (*domain.VideoProgress, error) {
	p, err := s.repo.Get(ctx, studentID, lessonID)
	if err != nil {
		s.log.ErrorContext(ctx, "progress - get - lookup failed", "student_id", studentID, "lesson_id", lessonID, "err", err)
		return nil, err
	}
	return p, nil
}

func (s *ProgressService) broadcast(ctx context.Context, room, event string, payload any) {
	f, err := realtime.NewFrame(event, payload)
	if err != nil {
		s.log.ErrorContext(ctx, "progress - broadcast - frame build failed", "event", event, "err", err)
		return
	}
	s.registry.Broadcast(ctx, room, f)
}
