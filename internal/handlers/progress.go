package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"liveclass-backend/internal/live"
	"liveclass-backend/internal/middleware"
	"liveclass-backend/internal/models"
	"liveclass-backend/internal/repository"
)

// ProgressHandler exposes the timer transitions over REST for self-paced
// study. Live-mode calls land here too (completion sync while the socket is
// down), so completes and uncompletes re-broadcast to the course room.
type ProgressHandler struct {
	timer    *live.Timer
	stats    *live.Stats
	guard    *live.Guard
	courses  *repository.CourseRepo
	progress *repository.ProgressRepo
	hub      live.Broadcaster
}

func NewProgressHandler(timer *live.Timer, stats *live.Stats, guard *live.Guard, courses *repository.CourseRepo, progress *repository.ProgressRepo, hub live.Broadcaster) *ProgressHandler {
	return &ProgressHandler{
		timer:    timer,
		stats:    stats,
		guard:    guard,
		courses:  courses,
		progress: progress,
		hub:      hub,
	}
}

type timerRequest struct {
	Mode string `json:"mode"`
}

type timerAction func(ctx context.Context, userID, checkpointID uuid.UUID, mode models.ProgressMode) (*models.ProgressRecord, error)

func (h *ProgressHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Start, "")
}

func (h *ProgressHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Pause, "")
}

func (h *ProgressHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Resume, "")
}

func (h *ProgressHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Complete, "completed")
}

func (h *ProgressHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Uncomplete, "uncompleted")
}

func (h *ProgressHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Stop, "")
}

func (h *ProgressHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, h.timer.Reset, "")
}

// runAction resolves checkpoint and access, applies the transition, and for
// completion changes in live mode pushes the updated stats to the room.
func (h *ProgressHandler) runAction(w http.ResponseWriter, r *http.Request, action timerAction, broadcastStatus string) {
	p := middleware.GetParticipant(r.Context())

	checkpointID, err := uuid.Parse(chi.URLParam(r, "checkpointID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid checkpoint ID", r))
		return
	}

	var req timerRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	mode := models.ModeSelfPaced
	if req.Mode != "" {
		mode = models.ProgressMode(req.Mode)
		if !mode.Valid() {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid progress mode", r))
			return
		}
	}

	checkpoint, course, ok := h.checkpointWithAccess(w, r, p, checkpointID)
	if !ok {
		return
	}

	rec, err := action(r.Context(), p.ID, checkpoint.ID, mode)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if broadcastStatus != "" && mode == models.ModeLive {
		h.broadcastProgress(r.Context(), p, course.ID, checkpoint.ID, mode, broadcastStatus)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": rec,
	})
}

// GetStudentProgress returns every progress record for one student. Students
// may only read their own.
func (h *ProgressHandler) GetStudentProgress(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetParticipant(r.Context())

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return
	}
	if userID != p.ID && !p.IsInstructor() && !p.IsAdmin() {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Cannot view another student's progress", r))
		return
	}

	records, err := h.progress.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("list progress for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"progress": records,
	})
}

// GetCourseProgress returns the per-checkpoint completion matrix for a
// course, optionally filtered by mode (?mode=live|self_paced|all).
func (h *ProgressHandler) GetCourseProgress(w http.ResponseWriter, r *http.Request) {
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

	modeParam := r.URL.Query().Get("mode")
	modes := []models.ProgressMode{models.ModeLive, models.ModeSelfPaced}
	switch modeParam {
	case "", "all":
	case string(models.ModeLive):
		modes = modes[:1]
	case string(models.ModeSelfPaced):
		modes = modes[1:]
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid progress mode", r))
		return
	}

	rates := make(map[string]map[uuid.UUID]models.CompletionStat, len(modes))
	for _, mode := range modes {
		stats, err := h.stats.CompletionRates(r.Context(), course.ID, mode)
		if err != nil {
			log.Printf("completion rates for course %s: %v", course.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to compute completion rates", r))
			return
		}
		rates[string(mode)] = stats
	}

	resp := map[string]interface{}{
		"course_id":        course.ID,
		"completion_rates": rates,
	}

	// The course's instructor additionally gets the per-student matrix.
	if h.guard.IsInstructorOf(p, course) {
		students, err := h.studentMatrix(r, course.ID, modes)
		if err != nil {
			log.Printf("student progress matrix for course %s: %v", course.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load student progress", r))
			return
		}
		resp["students"] = students
	}

	writeJSON(w, http.StatusOK, resp)
}

type studentProgress struct {
	UserID   uuid.UUID               `json:"user_id"`
	Name     string                  `json:"name"`
	Progress []models.ProgressRecord `json:"progress"`
}

// studentMatrix lists every enrolled student with their progress records for
// this course's checkpoints, filtered to the requested modes.
func (h *ProgressHandler) studentMatrix(r *http.Request, courseID uuid.UUID, modes []models.ProgressMode) ([]studentProgress, error) {
	checkpoints, err := h.courses.ListCheckpoints(r.Context(), courseID)
	if err != nil {
		return nil, err
	}
	inCourse := make(map[uuid.UUID]bool, len(checkpoints))
	for _, cp := range checkpoints {
		inCourse[cp.ID] = true
	}
	wantMode := make(map[models.ProgressMode]bool, len(modes))
	for _, m := range modes {
		wantMode[m] = true
	}

	students, err := h.courses.ListEnrolledStudents(r.Context(), courseID)
	if err != nil {
		return nil, err
	}

	matrix := make([]studentProgress, 0, len(students))
	for _, u := range students {
		records, err := h.progress.ListByUser(r.Context(), u.ID)
		if err != nil {
			return nil, err
		}
		filtered := make([]models.ProgressRecord, 0, len(records))
		for _, rec := range records {
			if inCourse[rec.CheckpointID] && wantMode[rec.Mode] {
				filtered = append(filtered, rec)
			}
		}
		matrix = append(matrix, studentProgress{
			UserID:   u.ID,
			Name:     models.DisplayNameOf(&u),
			Progress: filtered,
		})
	}
	return matrix, nil
}

func (h *ProgressHandler) checkpointWithAccess(w http.ResponseWriter, r *http.Request, p models.Participant, checkpointID uuid.UUID) (*models.Checkpoint, *models.Course, bool) {
	checkpoint, err := h.courses.GetCheckpoint(r.Context(), checkpointID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load checkpoint", r))
		return nil, nil, false
	}
	if checkpoint == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Checkpoint not found", r))
		return nil, nil, false
	}
	course, err := h.courses.GetCourse(r.Context(), checkpoint.CourseID)
	if err != nil || course == nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return nil, nil, false
	}
	allowed, err := h.guard.HasAccess(r.Context(), p, course)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check access", r))
		return nil, nil, false
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not enrolled in this course", r))
		return nil, nil, false
	}
	return checkpoint, course, true
}

func (h *ProgressHandler) broadcastProgress(ctx context.Context, p models.Participant, courseID, checkpointID uuid.UUID, mode models.ProgressMode, status string) {
	h.hub.ToRoom(live.CourseRoom(courseID), "progress_update", map[string]interface{}{
		"user_id":       p.ID,
		"username":      p.DisplayName,
		"checkpoint_id": checkpointID,
		"status":        status,
	})
	rates, err := h.stats.CompletionRates(ctx, courseID, mode)
	if err != nil {
		log.Printf("completion rates for course %s: %v", courseID, err)
		return
	}
	h.hub.ToRoom(live.CourseRoom(courseID), "session_stats", map[string]interface{}{
		"completion_rates": rates,
	})
}
