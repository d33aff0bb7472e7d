package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liveclass-backend/internal/models"
)

// SlideRepo covers slide decks, per-user reactions, and bookmarks.
type SlideRepo struct {
	pool *pgxpool.Pool
}

func NewSlideRepo(pool *pgxpool.Pool) *SlideRepo {
	return &SlideRepo{pool: pool}
}

func (r *SlideRepo) GetDeck(ctx context.Context, id uuid.UUID) (*models.SlideDeck, error) {
	var d models.SlideDeck
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, title, slide_count, current_slide_index,
			flag_threshold_count, flag_threshold_rate, created_at
		FROM slide_decks
		WHERE id = $1
	`, id).Scan(&d.ID, &d.CourseID, &d.Title, &d.SlideCount, &d.CurrentSlideIndex,
		&d.FlagThresholdCount, &d.FlagThresholdRate, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SlideRepo) SetCurrentSlide(ctx context.Context, deckID uuid.UUID, slideIndex int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE slide_decks SET current_slide_index = $2 WHERE id = $1
	`, deckID, slideIndex)
	return err
}

// SetReaction upserts: a user holds at most one reaction per slide.
func (r *SlideRepo) SetReaction(ctx context.Context, deckID, userID uuid.UUID, slideIndex int, reaction models.Reaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slide_reactions (deck_id, user_id, slide_index, reaction, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (deck_id, user_id, slide_index)
		DO UPDATE SET reaction = EXCLUDED.reaction, updated_at = NOW()
	`, deckID, userID, slideIndex, reaction)
	return err
}

func (r *SlideRepo) DeleteReaction(ctx context.Context, deckID, userID uuid.UUID, slideIndex int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM slide_reactions
		WHERE deck_id = $1 AND user_id = $2 AND slide_index = $3
	`, deckID, userID, slideIndex)
	return err
}

func (r *SlideRepo) CountReactions(ctx context.Context, deckID uuid.UUID, slideIndex int) (models.ReactionCounts, error) {
	var c models.ReactionCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE reaction = 'understood'),
			COUNT(*) FILTER (WHERE reaction = 'question'),
			COUNT(*) FILTER (WHERE reaction = 'hard'),
			COUNT(*)
		FROM slide_reactions
		WHERE deck_id = $1 AND slide_index = $2
	`, deckID, slideIndex).Scan(&c.Understood, &c.Question, &c.Hard, &c.TotalReacted)
	return c, err
}

func (r *SlideRepo) GetBookmark(ctx context.Context, deckID uuid.UUID, slideIndex int) (*models.SlideBookmark, error) {
	var b models.SlideBookmark
	err := r.pool.QueryRow(ctx, `
		SELECT deck_id, slide_index, is_auto, is_manual, reason, memo, created_at, updated_at
		FROM slide_bookmarks
		WHERE deck_id = $1 AND slide_index = $2
	`, deckID, slideIndex).Scan(&b.DeckID, &b.SlideIndex, &b.IsAuto, &b.IsManual,
		&b.Reason, &b.Memo, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *SlideRepo) UpsertBookmark(ctx context.Context, bm *models.SlideBookmark) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slide_bookmarks (deck_id, slide_index, is_auto, is_manual, reason, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (deck_id, slide_index)
		DO UPDATE SET is_auto = EXCLUDED.is_auto,
			is_manual = EXCLUDED.is_manual,
			reason = EXCLUDED.reason,
			memo = EXCLUDED.memo,
			updated_at = EXCLUDED.updated_at
	`, bm.DeckID, bm.SlideIndex, bm.IsAuto, bm.IsManual, bm.Reason, bm.Memo, bm.CreatedAt, bm.UpdatedAt)
	return err
}

func (r *SlideRepo) DeleteBookmark(ctx context.Context, deckID uuid.UUID, slideIndex int) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM slide_bookmarks
		WHERE deck_id = $1 AND slide_index = $2
	`, deckID, slideIndex)
	return err
}

func (r *SlideRepo) ListBookmarks(ctx context.Context, deckID uuid.UUID) ([]models.SlideBookmark, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT deck_id, slide_index, is_auto, is_manual, reason, memo, created_at, updated_at
		FROM slide_bookmarks
		WHERE deck_id = $1
		ORDER BY slide_index
	`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []models.SlideBookmark
	for rows.Next() {
		var b models.SlideBookmark
		if err := rows.Scan(&b.DeckID, &b.SlideIndex, &b.IsAuto, &b.IsManual,
			&b.Reason, &b.Memo, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
