package postgres

import (
	"context"
	"database/sql"
	"errors"

	"edulive/internal/core/domain"
)

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, n *domain.StudentNote) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
        INSERT INTO student_notes (id, student_id, lesson_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		n.ID,
		n.StudentID,
		n.LessonID,
		n.Content,
		n.CreatedAt,
		n.UpdatedAt,
	)
	return err
}

func (r *NoteRepo) UpdateContent(ctx context.Context, id, content string) (*domain.StudentNote, error) {
	exec := GetExecutor(ctx, r.db)
	var n domain.StudentNote
	err := exec.QueryRowContext(ctx, `
        UPDATE student_notes
        SET content = $2, updated_at = now()
        WHERE id = $1
        RETURNING id, student_id, lesson_id, content, created_at, updated_at
    `, id, content).Scan(
		&n.ID, &n.StudentID, &n.LessonID, &n.Content, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepo) Delete(ctx context.Context, id string) (*domain.StudentNote, error) {
	exec := GetExecutor(ctx, r.db)
	var n domain.StudentNote
	err := exec.QueryRowContext(ctx, `
        DELETE FROM student_notes
        WHERE id = $1
        RETURNING id, student_id, lesson_id, content, created_at, updated_at
    `, id).Scan(
		&n.ID, &n.StudentID, &n.LessonID, &n.Content, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepo) GetByStudentLesson(ctx context.Context, studentID, lessonID int) ([]domain.StudentNote, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
        SELECT id, student_id, lesson_id, content, created_at, updated_at
        FROM student_notes
        WHERE student_id = $1 AND lesson_id = $2
        ORDER BY created_at DESC
    `, studentID, lessonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notes []domain.StudentNote
	for rows.Next() {
		var n domain.StudentNote
		if err := rows.Scan(
			&n.ID, &n.StudentID, &n.LessonID, &n.Content, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
