package live

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

func newTestSlides() (*Slides, *fakeSlideStore, *models.SlideDeck) {
	store := newFakeSlideStore()
	deck := &models.SlideDeck{
		ID:                 uuid.New(),
		CourseID:           uuid.New(),
		Title:              "Week 3: Goroutines",
		SlideCount:         10,
		FlagThresholdCount: 3,
		FlagThresholdRate:  0.5,
	}
	store.decks[deck.ID] = deck
	return NewSlides(store, 3, 0.5), store, deck
}

func TestSetReactionAggregates(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()

	agg, err := slides.SetReaction(ctx, deck, uuid.New(), 2, models.ReactionUnderstood)
	if err != nil {
		t.Fatalf("SetReaction failed: %v", err)
	}
	if agg.Counts.Understood != 1 || agg.Counts.TotalReacted != 1 {
		t.Errorf("Expected 1 understood of 1 total, got %+v", agg.Counts)
	}
	if agg.Flagged {
		t.Error("Single understood reaction must not flag the slide")
	}
}

func TestSetReactionReplacesPrevious(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()
	userID := uuid.New()

	slides.SetReaction(ctx, deck, userID, 0, models.ReactionUnderstood)
	agg, err := slides.SetReaction(ctx, deck, userID, 0, models.ReactionHard)
	if err != nil {
		t.Fatalf("SetReaction failed: %v", err)
	}
	if agg.Counts.TotalReacted != 1 {
		t.Errorf("Expected one reaction per user, got total %d", agg.Counts.TotalReacted)
	}
	if agg.Counts.Hard != 1 || agg.Counts.Understood != 0 {
		t.Errorf("Expected reaction replaced, got %+v", agg.Counts)
	}
}

func TestSetReactionNoneClears(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()
	userID := uuid.New()

	slides.SetReaction(ctx, deck, userID, 1, models.ReactionQuestion)
	agg, err := slides.SetReaction(ctx, deck, userID, 1, models.ReactionNone)
	if err != nil {
		t.Fatalf("SetReaction(none) failed: %v", err)
	}
	if agg.Counts.TotalReacted != 0 {
		t.Errorf("Expected reaction cleared, got %+v", agg.Counts)
	}
}

func TestSetReactionValidation(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()

	tests := []struct {
		name       string
		slideIndex int
		reaction   models.Reaction
	}{
		{"negative index", -1, models.ReactionHard},
		{"index past deck", deck.SlideCount, models.ReactionHard},
		{"unknown reaction", 0, models.Reaction("angry")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := slides.SetReaction(ctx, deck, uuid.New(), tc.slideIndex, tc.reaction)
			if _, ok := err.(*ValidationError); !ok {
				t.Errorf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestAutoFlagByCount(t *testing.T) {
	slides, store, deck := newTestSlides()
	ctx := context.Background()

	slides.SetReaction(ctx, deck, uuid.New(), 4, models.ReactionQuestion)
	slides.SetReaction(ctx, deck, uuid.New(), 4, models.ReactionHard)
	agg, err := slides.SetReaction(ctx, deck, uuid.New(), 4, models.ReactionQuestion)
	if err != nil {
		t.Fatalf("SetReaction failed: %v", err)
	}
	if !agg.Flagged {
		t.Fatal("Expected slide flagged at 3 problem reactions")
	}
	if !strings.Contains(agg.Reason, "3명") || !strings.Contains(agg.Reason, "기준: 3명") {
		t.Errorf("Unexpected flag reason %q", agg.Reason)
	}

	bm, _ := store.GetBookmark(ctx, deck.ID, 4)
	if bm == nil || !bm.IsAuto || bm.IsManual {
		t.Errorf("Expected auto-only bookmark, got %+v", bm)
	}
	if bm.Reason == nil || *bm.Reason != agg.Reason {
		t.Errorf("Expected bookmark reason %q, got %v", agg.Reason, bm.Reason)
	}
}

func TestAutoFlagByRate(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()

	// 1 problem of 2 reacted is 50%, at the rate threshold but below the
	// count threshold.
	slides.SetReaction(ctx, deck, uuid.New(), 7, models.ReactionUnderstood)
	agg, err := slides.SetReaction(ctx, deck, uuid.New(), 7, models.ReactionHard)
	if err != nil {
		t.Fatalf("SetReaction failed: %v", err)
	}
	if !agg.Flagged {
		t.Fatal("Expected slide flagged at 50% problem rate")
	}
	if !strings.Contains(agg.Reason, "비율 50%") || !strings.Contains(agg.Reason, "기준: 50%") {
		t.Errorf("Unexpected flag reason %q", agg.Reason)
	}
}

func TestAutoFlagClearsWhenBelowThreshold(t *testing.T) {
	slides, store, deck := newTestSlides()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	slides.SetReaction(ctx, deck, a, 5, models.ReactionHard)
	slides.SetReaction(ctx, deck, b, 5, models.ReactionHard)

	// Dilute the rate below 50% with understood reactions.
	slides.SetReaction(ctx, deck, uuid.New(), 5, models.ReactionUnderstood)
	slides.SetReaction(ctx, deck, uuid.New(), 5, models.ReactionUnderstood)
	agg, _ := slides.SetReaction(ctx, deck, uuid.New(), 5, models.ReactionUnderstood)
	if agg.Flagged {
		t.Fatal("Expected slide unflagged at 2/5 problem rate")
	}

	bm, _ := store.GetBookmark(ctx, deck.ID, 5)
	if bm != nil {
		t.Errorf("Expected auto bookmark deleted, got %+v", bm)
	}
}

func TestAutoFlagDemotionPreservesManual(t *testing.T) {
	slides, store, deck := newTestSlides()
	ctx := context.Background()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	// Flag by count, then pin manually.
	slides.SetReaction(ctx, deck, a, 3, models.ReactionQuestion)
	slides.SetReaction(ctx, deck, b, 3, models.ReactionQuestion)
	slides.SetReaction(ctx, deck, c, 3, models.ReactionQuestion)
	slides.ToggleBookmark(ctx, deck, 3)

	// Everyone withdraws; the auto side must demote, the manual pin stays.
	slides.SetReaction(ctx, deck, a, 3, models.ReactionNone)
	slides.SetReaction(ctx, deck, b, 3, models.ReactionNone)
	slides.SetReaction(ctx, deck, c, 3, models.ReactionNone)

	bm, _ := store.GetBookmark(ctx, deck.ID, 3)
	if bm == nil {
		t.Fatal("Expected manually pinned bookmark to survive")
	}
	if bm.IsAuto || !bm.IsManual {
		t.Errorf("Expected manual-only bookmark after demotion, got %+v", bm)
	}
	if bm.Reason != nil {
		t.Errorf("Expected reason cleared on demotion, got %q", *bm.Reason)
	}
}

func TestToggleBookmarkCycle(t *testing.T) {
	slides, store, deck := newTestSlides()
	ctx := context.Background()

	// none -> manual-only
	upd, err := slides.ToggleBookmark(ctx, deck, 6)
	if err != nil {
		t.Fatalf("ToggleBookmark failed: %v", err)
	}
	if !upd.IsBookmarked {
		t.Error("Expected bookmarked after first toggle")
	}
	bm, _ := store.GetBookmark(ctx, deck.ID, 6)
	if bm == nil || !bm.IsManual || bm.IsAuto {
		t.Errorf("Expected manual-only bookmark, got %+v", bm)
	}

	// manual-only -> deleted
	upd, _ = slides.ToggleBookmark(ctx, deck, 6)
	if upd.IsBookmarked {
		t.Error("Expected unbookmarked after second toggle")
	}
	bm, _ = store.GetBookmark(ctx, deck.ID, 6)
	if bm != nil {
		t.Errorf("Expected bookmark deleted, got %+v", bm)
	}
}

func TestToggleBookmarkOnAutoFlagged(t *testing.T) {
	slides, store, deck := newTestSlides()
	ctx := context.Background()

	slides.SetReaction(ctx, deck, uuid.New(), 8, models.ReactionHard)
	slides.SetReaction(ctx, deck, uuid.New(), 8, models.ReactionHard)
	slides.SetReaction(ctx, deck, uuid.New(), 8, models.ReactionHard)

	// auto-only -> auto+manual
	upd, _ := slides.ToggleBookmark(ctx, deck, 8)
	if !upd.IsBookmarked {
		t.Error("Expected still bookmarked after pinning auto flag")
	}
	bm, _ := store.GetBookmark(ctx, deck.ID, 8)
	if bm == nil || !bm.IsAuto || !bm.IsManual {
		t.Errorf("Expected auto+manual bookmark, got %+v", bm)
	}

	// auto+manual -> manual-only: the instructor's toggle strips the auto
	// side rather than deleting outright.
	upd, _ = slides.ToggleBookmark(ctx, deck, 8)
	if !upd.IsBookmarked {
		t.Error("Expected still bookmarked as manual-only")
	}
	bm, _ = store.GetBookmark(ctx, deck.ID, 8)
	if bm == nil || bm.IsAuto || !bm.IsManual {
		t.Errorf("Expected manual-only bookmark, got %+v", bm)
	}
	if bm.Reason != nil {
		t.Errorf("Expected auto reason cleared, got %q", *bm.Reason)
	}
}

func TestAllAggregates(t *testing.T) {
	slides, _, deck := newTestSlides()
	ctx := context.Background()

	slides.SetReaction(ctx, deck, uuid.New(), 0, models.ReactionUnderstood)
	slides.SetReaction(ctx, deck, uuid.New(), 2, models.ReactionHard)
	slides.ToggleBookmark(ctx, deck, 9)

	aggregates, flagged, err := slides.AllAggregates(ctx, deck)
	if err != nil {
		t.Fatalf("AllAggregates failed: %v", err)
	}
	if len(aggregates) != deck.SlideCount {
		t.Errorf("Expected %d aggregate entries, got %d", deck.SlideCount, len(aggregates))
	}
	if aggregates[0].Understood != 1 || aggregates[2].Hard != 1 {
		t.Errorf("Unexpected aggregates: %+v", aggregates)
	}
	if len(flagged) != 1 || flagged[0].SlideIndex != 9 || !flagged[0].IsManual {
		t.Errorf("Expected slide 9 in flagged list, got %+v", flagged)
	}
}

func TestDeckThresholdFallback(t *testing.T) {
	store := newFakeSlideStore()
	deck := &models.SlideDeck{
		ID:         uuid.New(),
		SlideCount: 5,
		// No per-deck thresholds configured.
	}
	store.decks[deck.ID] = deck
	slides := NewSlides(store, 2, 0.9)
	ctx := context.Background()

	slides.SetReaction(ctx, deck, uuid.New(), 0, models.ReactionQuestion)
	agg, _ := slides.SetReaction(ctx, deck, uuid.New(), 0, models.ReactionQuestion)
	if !agg.Flagged {
		t.Error("Expected engine default threshold of 2 to apply")
	}
}
