package live

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// Chat is the append-only course message channel. Edits are author-only;
// deletes are author-or-instructor (an instructor may remove, but never
// rewrite, someone else's words).
type Chat struct {
	store ChatStore
	now   func() time.Time
}

func NewChat(store ChatStore) *Chat {
	return &Chat{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Post appends a message. Empty text is rejected.
func (c *Chat) Post(ctx context.Context, p models.Participant, courseID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Message: "message text required"}
	}

	msg := &models.ChatMessage{
		ID:        uuid.New(),
		CourseID:  courseID,
		UserID:    p.ID,
		UserName:  p.DisplayName,
		Role:      p.Role,
		Message:   text,
		CreatedAt: c.now(),
	}
	if err := c.store.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Edit replaces the text of the participant's own message.
func (c *Chat) Edit(ctx context.Context, p models.Participant, course *models.Course, messageID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Message: "message text required"}
	}

	msg, err := c.store.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil || msg.CourseID != course.ID {
		return nil, &NotFoundError{Message: "message not found"}
	}
	if msg.UserID != p.ID {
		return nil, &ForbiddenError{Message: "only the author may edit a message"}
	}

	if err := c.store.UpdateText(ctx, messageID, text); err != nil {
		return nil, err
	}
	msg.Message = text
	return msg, nil
}

// Delete removes a message. Allowed for the author and for the course's
// instructor.
func (c *Chat) Delete(ctx context.Context, p models.Participant, course *models.Course, messageID uuid.UUID) error {
	msg, err := c.store.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.CourseID != course.ID {
		return &NotFoundError{Message: "message not found"}
	}

	isCourseInstructor := p.IsInstructor() && course.InstructorID == p.ID
	if msg.UserID != p.ID && !isCourseInstructor {
		return &ForbiddenError{Message: "permission denied"}
	}

	return c.store.Delete(ctx, messageID)
}
