package models

import (
	"time"

	"github.com/google/uuid"
)

// ClassSession is one live run of a course. At most one session per course has
// a null EndedAt; understanding signals are scoped to that session.
type ClassSession struct {
	ID                  uuid.UUID  `json:"id"`
	CourseID            uuid.UUID  `json:"course_id"`
	CurrentCheckpointID *uuid.UUID `json:"current_checkpoint_id"`
	StartedAt           time.Time  `json:"started_at"`
	EndedAt             *time.Time `json:"ended_at"`
}

// Understanding signal values.
const (
	UnderstandingUnderstood = "understood"
	UnderstandingConfused   = "confused"
)

// UnderstandingSignal holds one per (user, checkpoint, session); resubmission
// overwrites the previous value.
type UnderstandingSignal struct {
	UserID       uuid.UUID `json:"user_id"`
	CheckpointID uuid.UUID `json:"checkpoint_id"`
	SessionID    uuid.UUID `json:"session_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UnderstandingTally struct {
	Understood int `json:"understood"`
	Confused   int `json:"confused"`
}

// Attendance marks a student present in a class session. Written by the
// worker pool off the attendance queue.
type Attendance struct {
	CourseID  uuid.UUID `json:"course_id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"marked_at"`
}
