package postgres

import (
	"context"
	"database/sql"
	"errors"

	"edulive/internal/core/domain"
)

type ProgressRepo struct {
	db *sql.DB
}

func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

func (r *ProgressRepo) UpsertSnapshot(ctx context.Context, p *domain.VideoProgress) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO video_progress (
            student_id, lesson_id, total_duration, watched_duration,
            current_time_s, is_playing, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (student_id, lesson_id)
        DO UPDATE SET
            total_duration = EXCLUDED.total_duration,
            watched_duration = EXCLUDED.watched_duration,
            current_time_s = EXCLUDED.current_time_s,
            is_playing = EXCLUDED.is_playing,
            updated_at = EXCLUDED.updated_at
    `,
		p.StudentID,
		p.LessonID,
		p.TotalDuration,
		p.WatchedDuration,
		p.CurrentTime,
		p.IsPlaying,
		p.UpdatedAt,
	)
	return err
}

// PatchPosition touches playhead fields only; duration and watched-range
// columns are owned by snapshots.
func (r *ProgressRepo) PatchPosition(ctx context.Context, d *domain.PositionDelta) error {
	exec := GetExecutor(ctx, r.db)
	res, err := exec.ExecContext(ctx, `
        UPDATE video_progress
        SET current_time_s = $3, is_playing = $4, updated_at = $5
        WHERE student_id = $1 AND lesson_id = $2
    `,
		d.StudentID,
		d.LessonID,
		d.CurrentTime,
		d.IsPlaying,
		d.RecordedAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProgressNotFound
	}
	return nil
}

func (r *ProgressRepo) Get(ctx context.Context, studentID, lessonID int) (*domain.VideoProgress, error) {
	exec := GetExecutor(ctx, r.db)
	var p domain.VideoProgress
	err := exec.QueryRowContext(ctx, `
        SELECT student_id, lesson_id, total_duration, watched_duration,
               current_time_s, is_playing, updated_at
        FROM video_progress
        WHERE student_id = $1 AND lesson_id = $2
    `, studentID, lessonID).Scan(
		&p.StudentID, &p.LessonID, &p.TotalDuration, &p.WatchedDuration,
		&p.CurrentTime, &p.IsPlaying, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}
