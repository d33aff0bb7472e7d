package live

import (
	"context"
	"time"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// Stats recomputes the room-level aggregates: per-checkpoint completion
// counts against the enrolled-student total, and per-session understanding
// tallies. It only reads the stores the timers and signals write to.
type Stats struct {
	courses       CourseStore
	progress      ProgressStore
	sessions      SessionStore
	understanding UnderstandingStore
	now           func() time.Time
}

func NewStats(courses CourseStore, progress ProgressStore, sessions SessionStore, understanding UnderstandingStore) *Stats {
	return &Stats{
		courses:       courses,
		progress:      progress,
		sessions:      sessions,
		understanding: understanding,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CompletionRates returns {checkpoint: {completed, total}} for every
// checkpoint of the course. The denominator is the enrollment count, so
// instructors never inflate it.
func (s *Stats) CompletionRates(ctx context.Context, courseID uuid.UUID, mode models.ProgressMode) (map[uuid.UUID]models.CompletionStat, error) {
	checkpoints, err := s.courses.ListCheckpoints(ctx, courseID)
	if err != nil {
		return nil, err
	}
	total, err := s.courses.CountEnrollments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(checkpoints))
	for i, cp := range checkpoints {
		ids[i] = cp.ID
	}
	completed, err := s.progress.CountCompleted(ctx, ids, mode)
	if err != nil {
		return nil, err
	}

	rates := make(map[uuid.UUID]models.CompletionStat, len(checkpoints))
	for _, cp := range checkpoints {
		rates[cp.ID] = models.CompletionStat{
			Completed: completed[cp.ID],
			Total:     total,
		}
	}
	return rates, nil
}

// RecordUnderstanding upserts the student's signal for the course's active
// session and returns the recomputed tally. Returns nil without error when
// the course has no active session (the signal has nowhere to land).
func (s *Stats) RecordUnderstanding(ctx context.Context, userID, courseID, checkpointID uuid.UUID, status string) (*models.UnderstandingTally, error) {
	if status != models.UnderstandingUnderstood && status != models.UnderstandingConfused {
		return nil, &ValidationError{Message: "invalid understanding status"}
	}

	session, err := s.sessions.ActiveForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	sig := &models.UnderstandingSignal{
		UserID:       userID,
		CheckpointID: checkpointID,
		SessionID:    session.ID,
		Status:       status,
		CreatedAt:    s.now(),
	}
	if err := s.understanding.Upsert(ctx, sig); err != nil {
		return nil, err
	}

	tally, err := s.understanding.Count(ctx, checkpointID, session.ID)
	if err != nil {
		return nil, err
	}
	return &tally, nil
}
