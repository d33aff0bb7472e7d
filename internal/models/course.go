package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	InstructorID uuid.UUID `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Checkpoint is a trackable unit of course content. Each student holds one
// ProgressRecord per checkpoint per mode.
type Checkpoint struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	Title     string    `json:"title"`
	OrderNum  int       `json:"order_num"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Enrollment struct {
	CourseID  uuid.UUID `json:"course_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
