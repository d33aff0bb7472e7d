package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressMode distinguishes instructor-paced live sessions from asynchronous
// self-paced study. Timers and stats are tracked independently per mode.
type ProgressMode string

const (
	ModeLive      ProgressMode = "live"
	ModeSelfPaced ProgressMode = "self_paced"
)

func (m ProgressMode) Valid() bool {
	return m == ModeLive || m == ModeSelfPaced
}

// ProgressRecord tracks elapsed-time accumulation for one (user, checkpoint,
// mode). StartedAt is set only while the timer is actively running; paused
// intervals never count toward AccumulatedSeconds.
type ProgressRecord struct {
	ID                 uuid.UUID    `json:"id"`
	UserID             uuid.UUID    `json:"user_id"`
	CheckpointID       uuid.UUID    `json:"checkpoint_id"`
	Mode               ProgressMode `json:"mode"`
	StartedAt          *time.Time   `json:"started_at"`
	PausedAt           *time.Time   `json:"paused_at"`
	IsPaused           bool         `json:"is_paused"`
	AccumulatedSeconds int          `json:"accumulated_seconds"`
	DurationSeconds    *int         `json:"duration_seconds"`
	CompletedAt        *time.Time   `json:"completed_at"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Running reports whether the timer is actively accumulating.
func (p *ProgressRecord) Running() bool {
	return p.StartedAt != nil && !p.IsPaused
}

func (p *ProgressRecord) Completed() bool {
	return p.CompletedAt != nil
}

// CompletionStat is one cell of the per-checkpoint completion aggregate.
type CompletionStat struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
