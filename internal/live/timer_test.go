package live

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTimer() (*Timer, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
	timer := NewTimer(newFakeProgressStore())
	timer.now = clock.Now
	return timer, clock
}

func TestTimerStartCreatesRunningRecord(t *testing.T) {
	timer, clock := newTestTimer()
	userID, checkpointID := uuid.New(), uuid.New()

	rec, err := timer.Start(context.Background(), userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !rec.Running() {
		t.Error("Expected record to be running after start")
	}
	if rec.StartedAt == nil || !rec.StartedAt.Equal(clock.Now()) {
		t.Errorf("Expected started_at %v, got %v", clock.Now(), rec.StartedAt)
	}
	if rec.AccumulatedSeconds != 0 {
		t.Errorf("Expected 0 accumulated seconds, got %d", rec.AccumulatedSeconds)
	}
}

func TestTimerAccumulationAcrossPauses(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeSelfPaced)

	clock.Advance(10 * time.Second)
	rec, err := timer.Pause(ctx, userID, checkpointID, models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if rec.AccumulatedSeconds != 10 {
		t.Errorf("Expected 10 accumulated seconds after first pause, got %d", rec.AccumulatedSeconds)
	}
	if rec.StartedAt != nil {
		t.Error("Expected started_at cleared while paused")
	}
	if !rec.IsPaused {
		t.Error("Expected is_paused after pause")
	}

	// Paused time must not count.
	clock.Advance(30 * time.Second)
	timer.Resume(ctx, userID, checkpointID, models.ModeSelfPaced)

	clock.Advance(5 * time.Second)
	rec, err = timer.Complete(ctx, userID, checkpointID, models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if rec.AccumulatedSeconds != 15 {
		t.Errorf("Expected 15 accumulated seconds, got %d", rec.AccumulatedSeconds)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 15 {
		t.Errorf("Expected duration 15, got %v", rec.DurationSeconds)
	}
	if !rec.Completed() {
		t.Error("Expected record completed")
	}
}

func TestTimerInvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(ctx context.Context, timer *Timer, userID, checkpointID uuid.UUID)
		action func(ctx context.Context, timer *Timer, userID, checkpointID uuid.UUID) error
	}{
		{
			"pause while idle",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Pause(ctx, u, c, models.ModeLive)
				return err
			},
		},
		{
			"resume while idle",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Resume(ctx, u, c, models.ModeLive)
				return err
			},
		},
		{
			"resume while running",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {
				timer.Start(ctx, u, c, models.ModeLive)
			},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Resume(ctx, u, c, models.ModeLive)
				return err
			},
		},
		{
			"pause while paused",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {
				timer.Start(ctx, u, c, models.ModeLive)
				timer.Pause(ctx, u, c, models.ModeLive)
			},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Pause(ctx, u, c, models.ModeLive)
				return err
			},
		},
		{
			"uncomplete while not completed",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {
				timer.Start(ctx, u, c, models.ModeLive)
			},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Uncomplete(ctx, u, c, models.ModeLive)
				return err
			},
		},
		{
			"stop while idle",
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) {
				timer.Start(ctx, u, c, models.ModeLive)
				timer.Stop(ctx, u, c, models.ModeLive)
			},
			func(ctx context.Context, timer *Timer, u, c uuid.UUID) error {
				_, err := timer.Stop(ctx, u, c, models.ModeLive)
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			timer, _ := newTestTimer()
			ctx := context.Background()
			userID, checkpointID := uuid.New(), uuid.New()

			tc.setup(ctx, timer, userID, checkpointID)
			err := tc.action(ctx, timer, userID, checkpointID)
			if _, ok := err.(*InvalidTransitionError); !ok {
				t.Errorf("Expected InvalidTransitionError, got %v", err)
			}
		})
	}
}

func TestTimerStartIsIdempotentWhileRunning(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	first, _ := timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(7 * time.Second)
	second, err := timer.Start(ctx, userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Second start failed: %v", err)
	}
	if !second.StartedAt.Equal(*first.StartedAt) {
		t.Errorf("Expected started_at unchanged, got %v then %v", first.StartedAt, second.StartedAt)
	}
}

func TestTimerStartWhilePausedIsNoOp(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(10 * time.Second)
	timer.Pause(ctx, userID, checkpointID, models.ModeLive)

	rec, err := timer.Start(ctx, userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !rec.IsPaused {
		t.Error("Expected record still paused; start must not bypass resume")
	}
	if rec.AccumulatedSeconds != 10 {
		t.Errorf("Expected accumulated seconds preserved, got %d", rec.AccumulatedSeconds)
	}
}

func TestTimerStartRearmsCompletedRecord(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(42 * time.Second)
	timer.Complete(ctx, userID, checkpointID, models.ModeLive)

	clock.Advance(time.Minute)
	rec, err := timer.Start(ctx, userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if rec.Completed() {
		t.Error("Expected completion cleared on restart")
	}
	if rec.AccumulatedSeconds != 0 {
		t.Errorf("Expected accumulated seconds reset to 0, got %d", rec.AccumulatedSeconds)
	}
	if rec.DurationSeconds != nil {
		t.Errorf("Expected duration cleared, got %v", rec.DurationSeconds)
	}
	if !rec.Running() {
		t.Error("Expected record running after restart")
	}
}

func TestTimerCompleteWithoutStart(t *testing.T) {
	timer, _ := newTestTimer()
	ctx := context.Background()

	rec, err := timer.Complete(ctx, uuid.New(), uuid.New(), models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !rec.Completed() {
		t.Error("Expected record completed")
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 0 {
		t.Errorf("Expected duration 0, got %v", rec.DurationSeconds)
	}
}

func TestTimerUncompletePreservesAccumulated(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(25 * time.Second)
	timer.Complete(ctx, userID, checkpointID, models.ModeLive)

	rec, err := timer.Uncomplete(ctx, userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Uncomplete failed: %v", err)
	}
	if rec.Completed() {
		t.Error("Expected completion cleared")
	}
	if rec.DurationSeconds != nil {
		t.Errorf("Expected duration cleared, got %v", rec.DurationSeconds)
	}
	if rec.AccumulatedSeconds != 25 {
		t.Errorf("Expected accumulated seconds preserved at 25, got %d", rec.AccumulatedSeconds)
	}
}

func TestTimerStopDoesNotComplete(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeSelfPaced)
	clock.Advance(18 * time.Second)
	rec, err := timer.Stop(ctx, userID, checkpointID, models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if rec.Completed() {
		t.Error("Stop must not mark the checkpoint completed")
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 18 {
		t.Errorf("Expected duration 18, got %v", rec.DurationSeconds)
	}
	if rec.Running() || rec.IsPaused {
		t.Error("Expected record idle after stop")
	}
}

func TestTimerStopFromPaused(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeSelfPaced)
	clock.Advance(12 * time.Second)
	timer.Pause(ctx, userID, checkpointID, models.ModeSelfPaced)
	clock.Advance(time.Hour)

	rec, err := timer.Stop(ctx, userID, checkpointID, models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if rec.DurationSeconds == nil || *rec.DurationSeconds != 12 {
		t.Errorf("Expected duration 12 (paused time excluded), got %v", rec.DurationSeconds)
	}
}

func TestTimerReset(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(33 * time.Second)
	timer.Complete(ctx, userID, checkpointID, models.ModeLive)

	rec, err := timer.Reset(ctx, userID, checkpointID, models.ModeLive)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if rec.AccumulatedSeconds != 0 || rec.Completed() || rec.Running() || rec.IsPaused || rec.DurationSeconds != nil {
		t.Errorf("Expected fully cleared record, got %+v", rec)
	}
}

func TestTimerResetWithoutRecord(t *testing.T) {
	timer, _ := newTestTimer()

	rec, err := timer.Reset(context.Background(), uuid.New(), uuid.New(), models.ModeLive)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected nil record for reset of nonexistent timer, got %+v", rec)
	}
}

func TestTimerModesAreIndependent(t *testing.T) {
	timer, clock := newTestTimer()
	ctx := context.Background()
	userID, checkpointID := uuid.New(), uuid.New()

	timer.Start(ctx, userID, checkpointID, models.ModeLive)
	clock.Advance(10 * time.Second)
	timer.Complete(ctx, userID, checkpointID, models.ModeLive)

	rec, err := timer.Start(ctx, userID, checkpointID, models.ModeSelfPaced)
	if err != nil {
		t.Fatalf("Start in second mode failed: %v", err)
	}
	if rec.Completed() {
		t.Error("Self-paced record must not inherit live-mode completion")
	}
	if rec.AccumulatedSeconds != 0 {
		t.Errorf("Expected fresh record for second mode, got %d accumulated seconds", rec.AccumulatedSeconds)
	}
}
