package live

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// SlideAggregate is the broadcast payload for one slide after a reaction or
// bookmark mutation.
type SlideAggregate struct {
	SlideIndex int                   `json:"slide_index"`
	Counts     models.ReactionCounts `json:"counts"`
	Flagged    bool                  `json:"flagged"`
	Reason     string                `json:"reason"`
}

// FlaggedSlide is one entry of the all_slide_aggregates reply.
type FlaggedSlide struct {
	SlideIndex int     `json:"slide_index"`
	IsAuto     bool    `json:"is_auto"`
	IsManual   bool    `json:"is_manual"`
	Reason     *string `json:"reason"`
}

// BookmarkUpdate is the broadcast payload after a manual bookmark toggle.
type BookmarkUpdate struct {
	SlideIndex   int  `json:"slide_index"`
	IsBookmarked bool `json:"is_bookmarked"`
}

// Slides tracks one reaction per (user, slide) pair, aggregates counts, and
// reconciles the auto-flag bookmark against the threshold policy. Every
// read-modify-write on a slide runs under that slide's key lock so counts and
// flag decisions see a consistent snapshot.
type Slides struct {
	slides SlideStore
	keys   *KeyMutex

	// Fallbacks for decks that carry no thresholds of their own.
	defaultThresholdCount int
	defaultThresholdRate  float64

	now func() time.Time
}

func NewSlides(slides SlideStore, thresholdCount int, thresholdRate float64) *Slides {
	return &Slides{
		slides:                slides,
		keys:                  NewKeyMutex(),
		defaultThresholdCount: thresholdCount,
		defaultThresholdRate:  thresholdRate,
		now:                   func() time.Time { return time.Now().UTC() },
	}
}

func slideKey(deckID uuid.UUID, slideIndex int) string {
	return fmt.Sprintf("slide:%s:%d", deckID, slideIndex)
}

// SetReaction upserts (or, for ReactionNone, deletes) the student's reaction,
// recomputes the slide's counts, and reconciles the auto-flag. Returns the
// aggregate to broadcast to the deck room.
func (s *Slides) SetReaction(ctx context.Context, deck *models.SlideDeck, userID uuid.UUID, slideIndex int, reaction models.Reaction) (*SlideAggregate, error) {
	if !reaction.Valid() {
		return nil, &ValidationError{Message: "unknown reaction value"}
	}
	if slideIndex < 0 || slideIndex >= deck.SlideCount {
		return nil, &ValidationError{Message: "slide index out of range"}
	}

	key := slideKey(deck.ID, slideIndex)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	if reaction == models.ReactionNone {
		if err := s.slides.DeleteReaction(ctx, deck.ID, userID, slideIndex); err != nil {
			return nil, err
		}
	} else {
		if err := s.slides.SetReaction(ctx, deck.ID, userID, slideIndex, reaction); err != nil {
			return nil, err
		}
	}

	counts, err := s.slides.CountReactions(ctx, deck.ID, slideIndex)
	if err != nil {
		return nil, err
	}

	flagged, reason, err := s.reconcileFlag(ctx, deck, slideIndex, counts)
	if err != nil {
		return nil, err
	}

	return &SlideAggregate{
		SlideIndex: slideIndex,
		Counts:     counts,
		Flagged:    flagged,
		Reason:     reason,
	}, nil
}

// Aggregate returns the current counts for one slide without mutating
// anything.
func (s *Slides) Aggregate(ctx context.Context, deckID uuid.UUID, slideIndex int) (models.ReactionCounts, error) {
	return s.slides.CountReactions(ctx, deckID, slideIndex)
}

// AllAggregates returns counts for every slide of the deck plus the list of
// currently bookmarked slides. Point-to-point reply, not a broadcast.
func (s *Slides) AllAggregates(ctx context.Context, deck *models.SlideDeck) (map[int]models.ReactionCounts, []FlaggedSlide, error) {
	aggregates := make(map[int]models.ReactionCounts, deck.SlideCount)
	for i := 0; i < deck.SlideCount; i++ {
		counts, err := s.slides.CountReactions(ctx, deck.ID, i)
		if err != nil {
			return nil, nil, err
		}
		aggregates[i] = counts
	}

	bookmarks, err := s.slides.ListBookmarks(ctx, deck.ID)
	if err != nil {
		return nil, nil, err
	}
	flagged := make([]FlaggedSlide, 0, len(bookmarks))
	for _, bm := range bookmarks {
		flagged = append(flagged, FlaggedSlide{
			SlideIndex: bm.SlideIndex,
			IsAuto:     bm.IsAuto,
			IsManual:   bm.IsManual,
			Reason:     bm.Reason,
		})
	}
	return aggregates, flagged, nil
}

// ToggleBookmark cycles the instructor's manual flag:
// none -> manual-only, auto-only -> auto+manual, auto+manual -> manual-only,
// manual-only -> deleted.
func (s *Slides) ToggleBookmark(ctx context.Context, deck *models.SlideDeck, slideIndex int) (*BookmarkUpdate, error) {
	if slideIndex < 0 || slideIndex >= deck.SlideCount {
		return nil, &ValidationError{Message: "slide index out of range"}
	}

	key := slideKey(deck.ID, slideIndex)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	bm, err := s.slides.GetBookmark(ctx, deck.ID, slideIndex)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var bookmarked bool
	switch bm.State() {
	case models.BookmarkNone:
		bm = &models.SlideBookmark{
			DeckID:     deck.ID,
			SlideIndex: slideIndex,
			IsManual:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.slides.UpsertBookmark(ctx, bm); err != nil {
			return nil, err
		}
		bookmarked = true

	case models.BookmarkAuto:
		bm.IsManual = true
		bm.UpdatedAt = now
		if err := s.slides.UpsertBookmark(ctx, bm); err != nil {
			return nil, err
		}
		bookmarked = true

	case models.BookmarkBoth:
		bm.IsAuto = false
		bm.Reason = nil
		bm.UpdatedAt = now
		if err := s.slides.UpsertBookmark(ctx, bm); err != nil {
			return nil, err
		}
		bookmarked = true

	case models.BookmarkManual:
		if err := s.slides.DeleteBookmark(ctx, deck.ID, slideIndex); err != nil {
			return nil, err
		}
		bookmarked = false
	}

	return &BookmarkUpdate{SlideIndex: slideIndex, IsBookmarked: bookmarked}, nil
}

// reconcileFlag evaluates the threshold policy against fresh counts and
// creates, updates, demotes, or deletes the slide's bookmark. A bookmark with
// the manual flag set always survives; only its auto side is touched.
func (s *Slides) reconcileFlag(ctx context.Context, deck *models.SlideDeck, slideIndex int, counts models.ReactionCounts) (bool, string, error) {
	thresholdCount := deck.FlagThresholdCount
	if thresholdCount <= 0 {
		thresholdCount = s.defaultThresholdCount
	}
	thresholdRate := deck.FlagThresholdRate
	if thresholdRate <= 0 {
		thresholdRate = s.defaultThresholdRate
	}

	problem := counts.ProblemCount()
	total := counts.TotalReacted

	var flagged bool
	var reason string
	if problem >= thresholdCount {
		flagged = true
		reason = fmt.Sprintf("어려움+질문 %d명 (기준: %d명)", problem, thresholdCount)
	} else if total > 0 && float64(problem)/float64(total) >= thresholdRate {
		flagged = true
		reason = fmt.Sprintf("어려움+질문 비율 %d%% (기준: %d%%)",
			int(float64(problem)/float64(total)*100), int(thresholdRate*100))
	}

	bm, err := s.slides.GetBookmark(ctx, deck.ID, slideIndex)
	if err != nil {
		return false, "", err
	}

	now := s.now()
	if flagged {
		if bm == nil {
			bm = &models.SlideBookmark{
				DeckID:     deck.ID,
				SlideIndex: slideIndex,
				CreatedAt:  now,
			}
		}
		bm.IsAuto = true
		bm.Reason = &reason
		bm.UpdatedAt = now
		if err := s.slides.UpsertBookmark(ctx, bm); err != nil {
			return false, "", err
		}
		return true, reason, nil
	}

	switch bm.State() {
	case models.BookmarkAuto:
		if err := s.slides.DeleteBookmark(ctx, deck.ID, slideIndex); err != nil {
			return false, "", err
		}
	case models.BookmarkBoth:
		// Manual intent survives; only the auto side is demoted.
		bm.IsAuto = false
		bm.Reason = nil
		bm.UpdatedAt = now
		if err := s.slides.UpsertBookmark(ctx, bm); err != nil {
			return false, "", err
		}
	}
	return false, "", nil
}
