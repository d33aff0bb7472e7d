package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// In-memory store fakes. They return copies the way the pgx repositories do,
// so engine code cannot accidentally rely on shared pointers.

type fakeProgressStore struct {
	mu      sync.Mutex
	records map[string]*models.ProgressRecord
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[string]*models.ProgressRecord)}
}

func progressFakeKey(userID, checkpointID uuid.UUID, mode models.ProgressMode) string {
	return fmt.Sprintf("%s|%s|%s", userID, checkpointID, mode)
}

func (s *fakeProgressStore) Get(_ context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[progressFakeKey(userID, checkpointID, mode)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeProgressStore) Create(_ context.Context, rec *models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.New()
	cp := *rec
	s.records[progressFakeKey(rec.UserID, rec.CheckpointID, rec.Mode)] = &cp
	return nil
}

func (s *fakeProgressStore) Update(_ context.Context, rec *models.ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[progressFakeKey(rec.UserID, rec.CheckpointID, rec.Mode)] = &cp
	return nil
}

func (s *fakeProgressStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProgressRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeProgressStore) CountCompleted(_ context.Context, checkpointIDs []uuid.UUID, mode models.ProgressMode) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]int, len(checkpointIDs))
	for _, id := range checkpointIDs {
		out[id] = 0
	}
	for _, rec := range s.records {
		if rec.Mode != mode || rec.CompletedAt == nil {
			continue
		}
		if _, ok := out[rec.CheckpointID]; ok {
			out[rec.CheckpointID]++
		}
	}
	return out, nil
}

type fakeCourseStore struct {
	courses     map[uuid.UUID]*models.Course
	checkpoints map[uuid.UUID]*models.Checkpoint
	enrolled    map[string]bool
	enrollCount map[uuid.UUID]int
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses:     make(map[uuid.UUID]*models.Course),
		checkpoints: make(map[uuid.UUID]*models.Checkpoint),
		enrolled:    make(map[string]bool),
		enrollCount: make(map[uuid.UUID]int),
	}
}

func (s *fakeCourseStore) addCourse(c *models.Course) { s.courses[c.ID] = c }

func (s *fakeCourseStore) addCheckpoint(cp *models.Checkpoint) { s.checkpoints[cp.ID] = cp }

func (s *fakeCourseStore) enroll(userID, courseID uuid.UUID) {
	s.enrolled[userID.String()+"|"+courseID.String()] = true
	s.enrollCount[courseID]++
}

func (s *fakeCourseStore) GetCourse(_ context.Context, id uuid.UUID) (*models.Course, error) {
	return s.courses[id], nil
}

func (s *fakeCourseStore) GetCheckpoint(_ context.Context, id uuid.UUID) (*models.Checkpoint, error) {
	return s.checkpoints[id], nil
}

func (s *fakeCourseStore) ListCheckpoints(_ context.Context, courseID uuid.UUID) ([]models.Checkpoint, error) {
	var out []models.Checkpoint
	for _, cp := range s.checkpoints {
		if cp.CourseID == courseID && !cp.IsDeleted {
			out = append(out, *cp)
		}
	}
	return out, nil
}

func (s *fakeCourseStore) IsEnrolled(_ context.Context, userID, courseID uuid.UUID) (bool, error) {
	return s.enrolled[userID.String()+"|"+courseID.String()], nil
}

func (s *fakeCourseStore) CountEnrollments(_ context.Context, courseID uuid.UUID) (int, error) {
	return s.enrollCount[courseID], nil
}

type fakeSessionStore struct {
	active  map[uuid.UUID]*models.ClassSession
	signals map[string]*models.UnderstandingSignal
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		active:  make(map[uuid.UUID]*models.ClassSession),
		signals: make(map[string]*models.UnderstandingSignal),
	}
}

func (s *fakeSessionStore) ActiveForCourse(_ context.Context, courseID uuid.UUID) (*models.ClassSession, error) {
	return s.active[courseID], nil
}

func (s *fakeSessionStore) SetCurrentCheckpoint(_ context.Context, sessionID uuid.UUID, checkpointID *uuid.UUID) error {
	for _, sess := range s.active {
		if sess.ID == sessionID {
			sess.CurrentCheckpointID = checkpointID
		}
	}
	return nil
}

func (s *fakeSessionStore) Upsert(_ context.Context, sig *models.UnderstandingSignal) error {
	key := fmt.Sprintf("%s|%s|%s", sig.UserID, sig.CheckpointID, sig.SessionID)
	cp := *sig
	s.signals[key] = &cp
	return nil
}

func (s *fakeSessionStore) Count(_ context.Context, checkpointID, sessionID uuid.UUID) (models.UnderstandingTally, error) {
	var tally models.UnderstandingTally
	for _, sig := range s.signals {
		if sig.CheckpointID != checkpointID || sig.SessionID != sessionID {
			continue
		}
		switch sig.Status {
		case models.UnderstandingUnderstood:
			tally.Understood++
		case models.UnderstandingConfused:
			tally.Confused++
		}
	}
	return tally, nil
}

type fakeSlideStore struct {
	mu        sync.Mutex
	decks     map[uuid.UUID]*models.SlideDeck
	reactions map[string]models.Reaction // deck|user|slide
	bookmarks map[string]*models.SlideBookmark
}

func newFakeSlideStore() *fakeSlideStore {
	return &fakeSlideStore{
		decks:     make(map[uuid.UUID]*models.SlideDeck),
		reactions: make(map[string]models.Reaction),
		bookmarks: make(map[string]*models.SlideBookmark),
	}
}

func reactionFakeKey(deckID, userID uuid.UUID, slideIndex int) string {
	return fmt.Sprintf("%s|%s|%d", deckID, userID, slideIndex)
}

func bookmarkFakeKey(deckID uuid.UUID, slideIndex int) string {
	return fmt.Sprintf("%s|%d", deckID, slideIndex)
}

func (s *fakeSlideStore) GetDeck(_ context.Context, id uuid.UUID) (*models.SlideDeck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decks[id], nil
}

func (s *fakeSlideStore) SetCurrentSlide(_ context.Context, deckID uuid.UUID, slideIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.decks[deckID]; ok {
		d.CurrentSlideIndex = slideIndex
	}
	return nil
}

func (s *fakeSlideStore) SetReaction(_ context.Context, deckID, userID uuid.UUID, slideIndex int, reaction models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[reactionFakeKey(deckID, userID, slideIndex)] = reaction
	return nil
}

func (s *fakeSlideStore) DeleteReaction(_ context.Context, deckID, userID uuid.UUID, slideIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reactions, reactionFakeKey(deckID, userID, slideIndex))
	return nil
}

func (s *fakeSlideStore) CountReactions(_ context.Context, deckID uuid.UUID, slideIndex int) (models.ReactionCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts models.ReactionCounts
	prefix := deckID.String() + "|"
	suffix := fmt.Sprintf("|%d", slideIndex)
	for key, reaction := range s.reactions {
		if len(key) < len(prefix)+len(suffix) || key[:len(prefix)] != prefix || key[len(key)-len(suffix):] != suffix {
			continue
		}
		counts.TotalReacted++
		switch reaction {
		case models.ReactionUnderstood:
			counts.Understood++
		case models.ReactionQuestion:
			counts.Question++
		case models.ReactionHard:
			counts.Hard++
		}
	}
	return counts, nil
}

func (s *fakeSlideStore) GetBookmark(_ context.Context, deckID uuid.UUID, slideIndex int) (*models.SlideBookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bm, ok := s.bookmarks[bookmarkFakeKey(deckID, slideIndex)]
	if !ok {
		return nil, nil
	}
	cp := *bm
	return &cp, nil
}

func (s *fakeSlideStore) UpsertBookmark(_ context.Context, bm *models.SlideBookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *bm
	s.bookmarks[bookmarkFakeKey(bm.DeckID, bm.SlideIndex)] = &cp
	return nil
}

func (s *fakeSlideStore) DeleteBookmark(_ context.Context, deckID uuid.UUID, slideIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bookmarks, bookmarkFakeKey(deckID, slideIndex))
	return nil
}

func (s *fakeSlideStore) ListBookmarks(_ context.Context, deckID uuid.UUID) ([]models.SlideBookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SlideBookmark
	for _, bm := range s.bookmarks {
		if bm.DeckID == deckID {
			out = append(out, *bm)
		}
	}
	return out, nil
}

type fakeChatStore struct {
	messages map[uuid.UUID]*models.ChatMessage
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{messages: make(map[uuid.UUID]*models.ChatMessage)}
}

func (s *fakeChatStore) Create(_ context.Context, msg *models.ChatMessage) error {
	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *fakeChatStore) Get(_ context.Context, id uuid.UUID) (*models.ChatMessage, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (s *fakeChatStore) UpdateText(_ context.Context, id uuid.UUID, text string) error {
	if msg, ok := s.messages[id]; ok {
		msg.Message = text
	}
	return nil
}

func (s *fakeChatStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.messages, id)
	return nil
}
