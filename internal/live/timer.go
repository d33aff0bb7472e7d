package live

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// Timer owns every transition of the per-(user, checkpoint, mode) progress
// records. Each transition runs as a read-modify-write under the record's key
// lock, so interleaved events on the same record are serialized.
//
// States: IDLE -> RUNNING -> {PAUSED, COMPLETED}, PAUSED -> {RUNNING,
// COMPLETED}, any state -> IDLE via reset. Durations are truncated to whole
// seconds.
type Timer struct {
	progress ProgressStore
	keys     *KeyMutex
	now      func() time.Time
}

func NewTimer(progress ProgressStore) *Timer {
	return &Timer{
		progress: progress,
		keys:     NewKeyMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func progressKey(userID, checkpointID uuid.UUID, mode models.ProgressMode) string {
	return fmt.Sprintf("progress:%s:%s:%s", userID, checkpointID, mode)
}

// Start arms the timer. On a completed record it re-arms from zero; on a
// paused record it is a no-op (a paused timer must be resumed, not started);
// on a running record it is idempotent.
func (t *Timer) Start(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	return t.transition(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if rec.IsPaused || rec.Running() {
			return nil
		}
		if rec.Completed() {
			rec.CompletedAt = nil
			rec.AccumulatedSeconds = 0
			rec.DurationSeconds = nil
		}
		rec.StartedAt = &now
		rec.IsPaused = false
		return nil
	})
}

// Pause folds the live interval into AccumulatedSeconds. Valid only while
// running.
func (t *Timer) Pause(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	return t.transition(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if !rec.Running() || rec.Completed() {
			return &InvalidTransitionError{Message: "cannot pause: timer is not running"}
		}
		foldInterval(rec, now)
		rec.StartedAt = nil
		rec.PausedAt = &now
		rec.IsPaused = true
		return nil
	})
}

// Resume restarts a paused timer; accumulated time is preserved.
func (t *Timer) Resume(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	return t.transition(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if !rec.IsPaused || rec.Completed() {
			return &InvalidTransitionError{Message: "cannot resume: timer is not paused"}
		}
		rec.StartedAt = &now
		rec.PausedAt = nil
		rec.IsPaused = false
		return nil
	})
}

// Complete finishes the checkpoint from any state. A running interval is
// folded first; a never-started record completes with duration zero.
func (t *Timer) Complete(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	return t.transition(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if rec.Running() {
			foldInterval(rec, now)
		}
		dur := rec.AccumulatedSeconds
		rec.CompletedAt = &now
		rec.DurationSeconds = &dur
		rec.StartedAt = nil
		rec.PausedAt = nil
		rec.IsPaused = false
		return nil
	})
}

// Uncomplete clears the completion mark and final duration. The record is
// left idle with its accumulated seconds intact, so progress is not lost on
// an accidental complete.
func (t *Timer) Uncomplete(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	rec, err := t.transitionExisting(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if !rec.Completed() {
			return &InvalidTransitionError{Message: "cannot uncomplete: checkpoint is not completed"}
		}
		rec.CompletedAt = nil
		rec.DurationSeconds = nil
		return nil
	})
	return rec, err
}

// Stop ends timing without marking completion, so a stopped checkpoint is
// distinguishable from a completed one. Valid from running or paused.
func (t *Timer) Stop(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	return t.transitionExisting(ctx, userID, checkpointID, mode, func(rec *models.ProgressRecord, now time.Time) error {
		if rec.Completed() || (rec.StartedAt == nil && !rec.IsPaused) {
			return &InvalidTransitionError{Message: "cannot stop: timer is not running or paused"}
		}
		if rec.Running() {
			foldInterval(rec, now)
		}
		dur := rec.AccumulatedSeconds
		rec.DurationSeconds = &dur
		rec.StartedAt = nil
		rec.PausedAt = nil
		rec.IsPaused = false
		return nil
	})
}

// Reset returns the record to idle defaults from any state. Resetting a
// record that never existed is a no-op.
func (t *Timer) Reset(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error) {
	key := progressKey(userID, checkpointID, mode)
	t.keys.Lock(key)
	defer t.keys.Unlock(key)

	rec, err := t.progress.Get(ctx, userID, checkpointID, mode)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	rec.StartedAt = nil
	rec.PausedAt = nil
	rec.IsPaused = false
	rec.AccumulatedSeconds = 0
	rec.DurationSeconds = nil
	rec.CompletedAt = nil
	if err := t.progress.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// transition loads or lazily creates the record, applies fn, and persists.
func (t *Timer) transition(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode, fn func(*models.ProgressRecord, time.Time) error) (*models.ProgressRecord, error) {
	key := progressKey(userID, checkpointID, mode)
	t.keys.Lock(key)
	defer t.keys.Unlock(key)

	now := t.now()
	rec, err := t.progress.Get(ctx, userID, checkpointID, mode)
	if err != nil {
		return nil, err
	}

	created := false
	if rec == nil {
		rec = &models.ProgressRecord{
			UserID:       userID,
			CheckpointID: checkpointID,
			Mode:         mode,
		}
		created = true
	}

	if err := fn(rec, now); err != nil {
		return nil, err
	}

	if created {
		err = t.progress.Create(ctx, rec)
	} else {
		err = t.progress.Update(ctx, rec)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// transitionExisting is like transition but fails when no record exists.
func (t *Timer) transitionExisting(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode, fn func(*models.ProgressRecord, time.Time) error) (*models.ProgressRecord, error) {
	key := progressKey(userID, checkpointID, mode)
	t.keys.Lock(key)
	defer t.keys.Unlock(key)

	now := t.now()
	rec, err := t.progress.Get(ctx, userID, checkpointID, mode)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &InvalidTransitionError{Message: "no progress record for checkpoint"}
	}
	if err := fn(rec, now); err != nil {
		return nil, err
	}
	if err := t.progress.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// foldInterval adds the live interval to AccumulatedSeconds, truncated to
// whole seconds. Negative intervals (clock skew) are dropped.
func foldInterval(rec *models.ProgressRecord, now time.Time) {
	if rec.StartedAt == nil {
		return
	}
	elapsed := int(now.Sub(*rec.StartedAt).Seconds())
	if elapsed > 0 {
		rec.AccumulatedSeconds += elapsed
	}
}
