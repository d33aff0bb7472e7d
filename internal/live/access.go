package live

import (
	"context"

	"liveclass-backend/internal/models"
)

// Guard answers the two authorization questions the engine asks: does this
// participant have access to a course, and is this participant its instructor.
type Guard struct {
	courses CourseStore
}

func NewGuard(courses CourseStore) *Guard {
	return &Guard{courses: courses}
}

// HasAccess is true for the course's instructor and for enrolled students.
func (g *Guard) HasAccess(ctx context.Context, p models.Participant, course *models.Course) (bool, error) {
	if course == nil {
		return false, nil
	}
	if p.IsInstructor() && course.InstructorID == p.ID {
		return true, nil
	}
	return g.courses.IsEnrolled(ctx, p.ID, course.ID)
}

// IsInstructorOf is true only for the course's own instructor.
func (g *Guard) IsInstructorOf(p models.Participant, course *models.Course) bool {
	return course != nil && p.IsInstructor() && course.InstructorID == p.ID
}
