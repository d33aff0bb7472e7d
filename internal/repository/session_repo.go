package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liveclass-backend/internal/models"
)

// SessionRepo covers class sessions, the understanding signals scoped to
// them, and attendance marks.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) ActiveForCourse(ctx context.Context, courseID uuid.UUID) (*models.ClassSession, error) {
	var s models.ClassSession
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, current_checkpoint_id, started_at, ended_at
		FROM class_sessions
		WHERE course_id = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1
	`, courseID).Scan(&s.ID, &s.CourseID, &s.CurrentCheckpointID, &s.StartedAt, &s.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) SetCurrentCheckpoint(ctx context.Context, sessionID uuid.UUID, checkpointID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE class_sessions
		SET current_checkpoint_id = $2
		WHERE id = $1
	`, sessionID, checkpointID)
	return err
}

// Upsert overwrites the student's previous signal for the same checkpoint
// and session; only the latest submission counts.
func (r *SessionRepo) Upsert(ctx context.Context, sig *models.UnderstandingSignal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO understanding_status (user_id, checkpoint_id, session_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, checkpoint_id, session_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`, sig.UserID, sig.CheckpointID, sig.SessionID, sig.Status, sig.CreatedAt)
	return err
}

func (r *SessionRepo) Count(ctx context.Context, checkpointID, sessionID uuid.UUID) (models.UnderstandingTally, error) {
	var tally models.UnderstandingTally
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'understood'),
			COUNT(*) FILTER (WHERE status = 'confused')
		FROM understanding_status
		WHERE checkpoint_id = $1 AND session_id = $2
	`, checkpointID, sessionID).Scan(&tally.Understood, &tally.Confused)
	return tally, err
}

// MarkAttendance is idempotent: re-joining the same session keeps the first
// mark's timestamp.
func (r *SessionRepo) MarkAttendance(ctx context.Context, att models.Attendance) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (course_id, user_id, session_id, status, marked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_id, user_id, session_id)
		DO UPDATE SET status = EXCLUDED.status
	`, att.CourseID, att.UserID, att.SessionID, att.Status, att.MarkedAt)
	return err
}
