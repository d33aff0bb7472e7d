package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liveclass-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

const progressColumns = `id, user_id, checkpoint_id, mode, started_at, paused_at, is_paused,
	accumulated_seconds, duration_seconds, completed_at, created_at, updated_at`

func (r *ProgressRepo) Get(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM progress
		WHERE user_id = $1 AND checkpoint_id = $2 AND mode = $3
	`, userID, checkpointID, mode)
	return scanProgress(row)
}

func (r *ProgressRepo) Create(ctx context.Context, rec *models.ProgressRecord) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO progress (user_id, checkpoint_id, mode, started_at, paused_at, is_paused,
			accumulated_seconds, duration_seconds, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, rec.UserID, rec.CheckpointID, rec.Mode, rec.StartedAt, rec.PausedAt, rec.IsPaused,
		rec.AccumulatedSeconds, rec.DurationSeconds, rec.CompletedAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *ProgressRepo) Update(ctx context.Context, rec *models.ProgressRecord) error {
	return r.pool.QueryRow(ctx, `
		UPDATE progress
		SET started_at = $2,
			paused_at = $3,
			is_paused = $4,
			accumulated_seconds = $5,
			duration_seconds = $6,
			completed_at = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, rec.ID, rec.StartedAt, rec.PausedAt, rec.IsPaused,
		rec.AccumulatedSeconds, rec.DurationSeconds, rec.CompletedAt,
	).Scan(&rec.UpdatedAt)
}

func (r *ProgressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+progressColumns+`
		FROM progress
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProgress(rows)
}

// CountCompleted returns the completed-record count per checkpoint for one
// mode. Checkpoints with no completions are present with a zero count.
func (r *ProgressRepo) CountCompleted(ctx context.Context, checkpointIDs []uuid.UUID, mode models.ProgressMode) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(checkpointIDs))
	for _, id := range checkpointIDs {
		counts[id] = 0
	}
	if len(checkpointIDs) == 0 {
		return counts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT checkpoint_id, COUNT(*)
		FROM progress
		WHERE checkpoint_id = ANY($1) AND mode = $2 AND completed_at IS NOT NULL
		GROUP BY checkpoint_id
	`, checkpointIDs, mode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanProgress(row pgx.Row) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.CheckpointID,
		&rec.Mode,
		&rec.StartedAt,
		&rec.PausedAt,
		&rec.IsPaused,
		&rec.AccumulatedSeconds,
		&rec.DurationSeconds,
		&rec.CompletedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectProgress(rows pgx.Rows) ([]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	for rows.Next() {
		var rec models.ProgressRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.CheckpointID,
			&rec.Mode,
			&rec.StartedAt,
			&rec.PausedAt,
			&rec.IsPaused,
			&rec.AccumulatedSeconds,
			&rec.DurationSeconds,
			&rec.CompletedAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
