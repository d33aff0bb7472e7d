package models

import (
	"time"

	"github.com/google/uuid"
)

type SlideDeck struct {
	ID                 uuid.UUID `json:"id"`
	CourseID           uuid.UUID `json:"course_id"`
	Title              string    `json:"title"`
	SlideCount         int       `json:"slide_count"`
	CurrentSlideIndex  int       `json:"current_slide_index"`
	FlagThresholdCount int       `json:"flag_threshold_count"`
	FlagThresholdRate  float64   `json:"flag_threshold_rate"`
	CreatedAt          time.Time `json:"created_at"`
}

// Reaction values a student can attach to a slide. ReactionNone clears the
// student's reaction.
type Reaction string

const (
	ReactionUnderstood Reaction = "understood"
	ReactionQuestion   Reaction = "question"
	ReactionHard       Reaction = "hard"
	ReactionNone       Reaction = "none"
)

func (r Reaction) Valid() bool {
	switch r {
	case ReactionUnderstood, ReactionQuestion, ReactionHard, ReactionNone:
		return true
	}
	return false
}

// SlideReaction holds at most one reaction per (deck, user, slide).
type SlideReaction struct {
	DeckID     uuid.UUID `json:"deck_id"`
	UserID     uuid.UUID `json:"user_id"`
	SlideIndex int       `json:"slide_index"`
	Reaction   Reaction  `json:"reaction"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReactionCounts struct {
	Understood   int `json:"understood"`
	Question     int `json:"question"`
	Hard         int `json:"hard"`
	TotalReacted int `json:"total_reacted"`
}

// ProblemCount is the number of reactions signalling trouble with the slide.
func (c ReactionCounts) ProblemCount() int {
	return c.Question + c.Hard
}

// BookmarkState is the tagged form of the (is_auto, is_manual) flag pair,
// so reconciliation transitions can be switched over exhaustively.
type BookmarkState int

const (
	BookmarkNone BookmarkState = iota
	BookmarkAuto
	BookmarkManual
	BookmarkBoth
)

// SlideBookmark exists iff at least one of the two flags is set; when both
// become false the record is deleted.
type SlideBookmark struct {
	DeckID     uuid.UUID `json:"deck_id"`
	SlideIndex int       `json:"slide_index"`
	IsAuto     bool      `json:"is_auto"`
	IsManual   bool      `json:"is_manual"`
	Reason     *string   `json:"reason"`
	Memo       *string   `json:"memo"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *SlideBookmark) State() BookmarkState {
	switch {
	case b == nil:
		return BookmarkNone
	case b.IsAuto && b.IsManual:
		return BookmarkBoth
	case b.IsAuto:
		return BookmarkAuto
	case b.IsManual:
		return BookmarkManual
	}
	return BookmarkNone
}
