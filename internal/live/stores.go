package live

import (
	"context"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// Store contracts the engine consumes. The pgx repositories in
// internal/repository implement them; tests use in-memory fakes.

type CourseStore interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetCheckpoint(ctx context.Context, id uuid.UUID) (*models.Checkpoint, error)
	ListCheckpoints(ctx context.Context, courseID uuid.UUID) ([]models.Checkpoint, error)
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	CountEnrollments(ctx context.Context, courseID uuid.UUID) (int, error)
}

type ProgressStore interface {
	Get(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error)
	Create(ctx context.Context, rec *models.ProgressRecord) error
	Update(ctx context.Context, rec *models.ProgressRecord) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ProgressRecord, error)
	CountCompleted(ctx context.Context, checkpointIDs []uuid.UUID, mode models.ProgressMode) (map[uuid.UUID]int, error)
}

type SessionStore interface {
	ActiveForCourse(ctx context.Context, courseID uuid.UUID) (*models.ClassSession, error)
	SetCurrentCheckpoint(ctx context.Context, sessionID uuid.UUID, checkpointID *uuid.UUID) error
}

type UnderstandingStore interface {
	Upsert(ctx context.Context, sig *models.UnderstandingSignal) error
	Count(ctx context.Context, checkpointID, sessionID uuid.UUID) (models.UnderstandingTally, error)
}

type SlideStore interface {
	GetDeck(ctx context.Context, id uuid.UUID) (*models.SlideDeck, error)
	SetCurrentSlide(ctx context.Context, deckID uuid.UUID, slideIndex int) error
	SetReaction(ctx context.Context, deckID, userID uuid.UUID, slideIndex int, reaction models.Reaction) error
	DeleteReaction(ctx context.Context, deckID, userID uuid.UUID, slideIndex int) error
	CountReactions(ctx context.Context, deckID uuid.UUID, slideIndex int) (models.ReactionCounts, error)
	GetBookmark(ctx context.Context, deckID uuid.UUID, slideIndex int) (*models.SlideBookmark, error)
	UpsertBookmark(ctx context.Context, bm *models.SlideBookmark) error
	DeleteBookmark(ctx context.Context, deckID uuid.UUID, slideIndex int) error
	ListBookmarks(ctx context.Context, deckID uuid.UUID) ([]models.SlideBookmark, error)
}

type ChatStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	Get(ctx context.Context, id uuid.UUID) (*models.ChatMessage, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
