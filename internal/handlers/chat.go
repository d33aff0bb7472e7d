package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"liveclass-backend/internal/live"
	"liveclass-backend/internal/middleware"
	"liveclass-backend/internal/repository"
)

// ChatHandler serves the history a client catches up on after connecting;
// live traffic flows over the socket.
type ChatHandler struct {
	chat    *repository.ChatRepo
	courses *repository.CourseRepo
	guard   *live.Guard
}

func NewChatHandler(chat *repository.ChatRepo, courses *repository.CourseRepo, guard *live.Guard) *ChatHandler {
	return &ChatHandler{chat: chat, courses: courses, guard: guard}
}

// History returns the most recent messages of a course room in chronological
// order. Defaults to the last 50.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetParticipant(r.Context())

	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}
	course, err := h.courses.GetCourse(r.Context(), courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return
	}
	if course == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}
	allowed, err := h.guard.HasAccess(r.Context(), p, course)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check access", r))
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not enrolled in this course", r))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	messages, err := h.chat.ListByCourse(r.Context(), course.ID, limit)
	if err != nil {
		log.Printf("list chat for course %s: %v", course.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"course_id": course.ID,
		"messages":  messages,
	})
}
