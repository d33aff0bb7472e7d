package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage belongs to a course room. Editable by its author; deletable by
// its author or the course's instructor.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"username"`
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
