package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liveclass-backend/internal/models"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, course_id, user_id, user_name, role, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at
	`, msg.ID, msg.CourseID, msg.UserID, msg.UserName, msg.Role, msg.Message, msg.CreatedAt).
		Scan(&msg.CreatedAt)
}

func (r *ChatRepo) Get(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, user_id, user_name, role, message, created_at, updated_at
		FROM chat_messages
		WHERE id = $1
	`, id).Scan(&m.ID, &m.CourseID, &m.UserID, &m.UserName, &m.Role, &m.Message, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ChatRepo) UpdateText(ctx context.Context, id uuid.UUID, text string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_messages
		SET message = $2, updated_at = NOW()
		WHERE id = $1
	`, id, text)
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM chat_messages WHERE id = $1
	`, id)
	return err
}

// ListByCourse returns the most recent messages in chronological order.
func (r *ChatRepo) ListByCourse(ctx context.Context, courseID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, user_id, user_name, role, message, created_at, updated_at
		FROM (
			SELECT id, course_id, user_id, user_name, role, message, created_at, updated_at
			FROM chat_messages
			WHERE course_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at
	`, courseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.CourseID, &m.UserID, &m.UserName, &m.Role, &m.Message, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
