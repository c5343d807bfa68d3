package domain

import "time"

// ChatMessage is a persisted chat entry. Seq is a strict per-room counter
// assigned at insert time; clients never see it, it exists for audit and
// history ordering.
type ChatMessage struct {
	ID        int64
	RoomID    string
	UserID    int
	Seq       int64
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudentNote is a note a student took on a lesson. Last write wins when
// two clients edit the same note; the server does not merge.
type StudentNote struct {
	ID        string
	StudentID int
	LessonID  int
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VideoProgress is the watch-progress record for one student-lesson pair.
// One row per pair, upserted on snapshot, patched on position deltas.
type VideoProgress struct {
	StudentID       int
	LessonID        int
	TotalDuration   float64
	WatchedDuration float64
	CurrentTime     float64
	IsPlaying       bool
	UpdatedAt       time.Time
}

// PositionDelta is the high-frequency playhead update queued for async
// persistence.
type PositionDelta struct {
	StudentID   int       `json:"student_id"`
	LessonID    int       `json:"lesson_id"`
	CurrentTime float64   `json:"current_time"`
	IsPlaying   bool      `json:"is_playing"`
	RecordedAt  time.Time `json:"recorded_at"`
}
