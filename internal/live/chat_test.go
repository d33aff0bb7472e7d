package live

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

func chatFixture() (*Chat, *fakeChatStore, *models.Course, models.Participant, models.Participant, models.Participant) {
	store := newFakeChatStore()
	instructor := models.Participant{ID: uuid.New(), Role: models.RoleInstructor, DisplayName: "Prof. Kim"}
	course := &models.Course{ID: uuid.New(), InstructorID: instructor.ID}
	author := models.Participant{ID: uuid.New(), Role: models.RoleStudent, DisplayName: "Mina"}
	other := models.Participant{ID: uuid.New(), Role: models.RoleStudent, DisplayName: "Jun"}
	return NewChat(store), store, course, instructor, author, other
}

func TestChatPost(t *testing.T) {
	chat, store, course, _, author, _ := chatFixture()

	msg, err := chat.Post(context.Background(), author, course.ID, "  does anyone else see the error?  ")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if msg.Message != "does anyone else see the error?" {
		t.Errorf("Expected trimmed text, got %q", msg.Message)
	}
	if msg.UserName != author.DisplayName || msg.Role != models.RoleStudent {
		t.Errorf("Expected author identity stamped, got %+v", msg)
	}
	if stored, _ := store.Get(context.Background(), msg.ID); stored == nil {
		t.Error("Expected message persisted")
	}
}

func TestChatPostRejectsEmpty(t *testing.T) {
	chat, _, course, _, author, _ := chatFixture()

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := chat.Post(context.Background(), author, course.ID, text); err == nil {
			t.Errorf("Expected rejection for text %q", text)
		}
	}
}

func TestChatEditAuthorOnly(t *testing.T) {
	chat, _, course, instructor, author, other := chatFixture()
	ctx := context.Background()

	msg, _ := chat.Post(ctx, author, course.ID, "first draft")

	edited, err := chat.Edit(ctx, author, course, msg.ID, "second draft")
	if err != nil {
		t.Fatalf("Author edit failed: %v", err)
	}
	if edited.Message != "second draft" {
		t.Errorf("Expected edited text, got %q", edited.Message)
	}

	// Even the instructor may not rewrite someone else's words.
	for _, p := range []models.Participant{other, instructor} {
		if _, err := chat.Edit(ctx, p, course, msg.ID, "hijacked"); err == nil {
			t.Errorf("Expected edit by %s rejected", p.Role)
		}
	}
}

func TestChatDeletePermissions(t *testing.T) {
	tests := []struct {
		name    string
		deleter func(instructor, author, other models.Participant) models.Participant
		wantErr bool
	}{
		{"author deletes own", func(_, a, _ models.Participant) models.Participant { return a }, false},
		{"instructor deletes any", func(i, _, _ models.Participant) models.Participant { return i }, false},
		{"other student denied", func(_, _, o models.Participant) models.Participant { return o }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chat, _, course, instructor, author, other := chatFixture()
			ctx := context.Background()
			msg, _ := chat.Post(ctx, author, course.ID, "hello")

			err := chat.Delete(ctx, tc.deleter(instructor, author, other), course, msg.ID)
			if tc.wantErr && err == nil {
				t.Error("Expected delete rejected")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Expected delete allowed, got %v", err)
			}
		})
	}
}

func TestChatCrossCourseMessageHidden(t *testing.T) {
	chat, _, course, _, author, _ := chatFixture()
	ctx := context.Background()

	msg, _ := chat.Post(ctx, author, course.ID, "hello")
	otherCourse := &models.Course{ID: uuid.New(), InstructorID: uuid.New()}

	if _, err := chat.Edit(ctx, author, otherCourse, msg.ID, "edited"); err == nil {
		t.Error("Expected cross-course edit to report not found")
	}
	if err := chat.Delete(ctx, author, otherCourse, msg.ID); err == nil {
		t.Error("Expected cross-course delete to report not found")
	}
}
