package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"liveclass-backend/internal/live"
	"liveclass-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AttendanceQueue enqueues attendance marks for asynchronous persistence.
type AttendanceQueue interface {
	EnqueueAttendance(ctx context.Context, att models.Attendance) error
}

// Handler upgrades connections and routes inbound events to the engine. Each
// event carries the actor identity established at connection time; events
// from unauthenticated sockets never reach the router because the upgrade
// itself is rejected.
type Handler struct {
	hub      SessionHub
	rooms    *live.Rooms
	guard    *live.Guard
	timer    *live.Timer
	stats    *live.Stats
	slides   *live.Slides
	share    *live.ShareRegistry
	chat     *live.Chat
	courses  live.CourseStore
	decks    live.SlideStore
	sessions live.SessionStore
	queue    AttendanceQueue

	jwtSecret []byte
}

func NewHandler(
	hub SessionHub,
	rooms *live.Rooms,
	guard *live.Guard,
	timer *live.Timer,
	stats *live.Stats,
	slides *live.Slides,
	share *live.ShareRegistry,
	chat *live.Chat,
	courses live.CourseStore,
	decks live.SlideStore,
	sessions live.SessionStore,
	queue AttendanceQueue,
	jwtSecret string,
) *Handler {
	h := &Handler{
		hub:       hub,
		rooms:     rooms,
		guard:     guard,
		timer:     timer,
		stats:     stats,
		slides:    slides,
		share:     share,
		chat:      chat,
		courses:   courses,
		decks:     decks,
		sessions:  sessions,
		queue:     queue,
		jwtSecret: []byte(jwtSecret),
	}
	hub.SetOnDisconnect(h.handleDisconnect)
	return h
}

// HandleWS authenticates via the token query param (as browser websocket
// clients cannot set headers) and starts the client pumps.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := newClient(h.hub, conn, p)
	h.hub.Register(c)

	go c.writePump()
	go c.readPump(h.route)

	h.hub.ToUser(p.ID, "connected", map[string]interface{}{
		"user_id":  p.ID,
		"username": p.DisplayName,
	})
}

func (h *Handler) authenticate(r *http.Request) (models.Participant, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return models.Participant{}, false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return models.Participant{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Participant{}, false
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return models.Participant{}, false
	}
	role, _ := claims["role"].(string)
	name, _ := claims["name"].(string)

	return models.Participant{ID: userID, Role: role, DisplayName: name}, true
}

// route dispatches one inbound event. Unknown events are dropped.
func (h *Handler) route(c *Client, env Envelope) {
	ctx := context.Background()

	switch env.Event {
	case "join_room":
		h.handleJoinRoom(ctx, c, env.Data)
	case "leave_room":
		h.handleLeaveRoom(ctx, c, env.Data)
	case "checkpoint_completed":
		h.handleCheckpointCompleted(ctx, c, env.Data)
	case "request_stats":
		h.handleRequestStats(ctx, c, env.Data)
	case "send_chat_message":
		h.handleSendChat(ctx, c, env.Data)
	case "edit_chat_message":
		h.handleEditChat(ctx, c, env.Data)
	case "delete_chat_message":
		h.handleDeleteChat(ctx, c, env.Data)
	case "set_current_checkpoint":
		h.handleSetCurrentCheckpoint(ctx, c, env.Data)
	case "checkpoint_timer_action":
		h.handleTimerAction(ctx, c, env.Data)
	case "instructor_checkpoint_complete":
		h.handleInstructorCheckpointComplete(ctx, c, env.Data)
	case "submit_understanding":
		h.handleSubmitUnderstanding(ctx, c, env.Data)
	case "join_slide_session":
		h.handleJoinSlideSession(ctx, c, env.Data)
	case "leave_slide_session":
		h.handleLeaveSlideSession(ctx, c, env.Data)
	case "change_slide":
		h.handleChangeSlide(ctx, c, env.Data)
	case "set_slide_reaction":
		h.handleSetSlideReaction(ctx, c, env.Data)
	case "request_slide_aggregates":
		h.handleRequestSlideAggregates(ctx, c, env.Data)
	case "toggle_slide_bookmark":
		h.handleToggleBookmark(ctx, c, env.Data)
	case "start_screen_share":
		h.handleStartScreenShare(ctx, c, env.Data)
	case "stop_screen_share":
		h.handleStopScreenShare(ctx, c, env.Data)
	case "screen_share_frame":
		h.handleScreenShareFrame(ctx, c, env.Data)
	default:
		log.Printf("unknown event %q from user %s", env.Event, c.Participant.ID)
	}
}

// handleDisconnect releases everything the connection exclusively held:
// room membership in every room, and any screen share the user owned.
func (h *Handler) handleDisconnect(c *Client) {
	for _, key := range h.rooms.DropAll(c.Participant.ID) {
		h.hub.ToRoom(key, "member_left", map[string]interface{}{
			"user_id":  c.Participant.ID,
			"username": c.Participant.DisplayName,
		})
	}
	for _, deckID := range h.share.StopAllOwnedBy(c.Participant.ID) {
		h.hub.ToRoom(live.DeckRoom(deckID), "screen_share_stopped", map[string]interface{}{
			"deck_id": deckID,
		})
	}
}

func (h *Handler) sendError(c *Client, message string) {
	h.hub.ToUser(c.Participant.ID, "error", map[string]string{"message": message})
}

// courseWithAccess loads the course and verifies the participant may act in
// it. Both a missing course and denied access reply with the same error, so
// course ids cannot be probed.
func (h *Handler) courseWithAccess(ctx context.Context, c *Client, courseID uuid.UUID) (*models.Course, bool) {
	course, err := h.courses.GetCourse(ctx, courseID)
	if err != nil || course == nil {
		h.sendError(c, "Access denied to this course")
		return nil, false
	}
	allowed, err := h.guard.HasAccess(ctx, c.Participant, course)
	if err != nil || !allowed {
		h.sendError(c, "Access denied to this course")
		return nil, false
	}
	return course, true
}

// deckWithAccess loads the deck and its course, silently dropping the event
// on any failure (mirrors the per-handler silent policy of slide events).
func (h *Handler) deckWithAccess(ctx context.Context, c *Client, deckID uuid.UUID) (*models.SlideDeck, *models.Course, bool) {
	deck, err := h.decks.GetDeck(ctx, deckID)
	if err != nil || deck == nil {
		return nil, nil, false
	}
	course, err := h.courses.GetCourse(ctx, deck.CourseID)
	if err != nil || course == nil {
		return nil, nil, false
	}
	allowed, err := h.guard.HasAccess(ctx, c.Participant, course)
	if err != nil || !allowed {
		return nil, nil, false
	}
	return deck, course, true
}

func parseMode(s string) models.ProgressMode {
	mode := models.ProgressMode(s)
	if !mode.Valid() {
		return models.ModeLive
	}
	return mode
}

// broadcastCompletionStats recomputes the course's completion rates and
// pushes them to the whole room.
func (h *Handler) broadcastCompletionStats(ctx context.Context, courseID uuid.UUID, mode models.ProgressMode) {
	rates, err := h.stats.CompletionRates(ctx, courseID, mode)
	if err != nil {
		log.Printf("completion rates for course %s: %v", courseID, err)
		return
	}
	h.hub.ToRoom(live.CourseRoom(courseID), "session_stats", map[string]interface{}{
		"completion_rates": rates,
	})
}

func (h *Handler) handleJoinRoom(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		Scope string    `json:"scope"`
		ID    uuid.UUID `json:"id"`
		Mode  string    `json:"mode"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	switch live.RoomScope(payload.Scope) {
	case live.ScopeCourse:
		h.joinCourseRoom(ctx, c, payload.ID, parseMode(payload.Mode))
	case live.ScopeSlideDeck:
		h.joinDeckRoom(ctx, c, payload.ID)
	}
}

func (h *Handler) joinCourseRoom(ctx context.Context, c *Client, courseID uuid.UUID, mode models.ProgressMode) {
	course, ok := h.courseWithAccess(ctx, c, courseID)
	if !ok {
		return
	}

	key := live.CourseRoom(course.ID)
	members := h.rooms.Join(key, c.Participant)
	h.hub.JoinRoom(c, key)

	h.hub.ToRoom(key, "member_joined", map[string]interface{}{
		"user_id":  c.Participant.ID,
		"username": c.Participant.DisplayName,
		"members":  members,
	})

	h.broadcastCompletionStats(ctx, course.ID, mode)
	h.markAttendance(ctx, c, course.ID)
}

func (h *Handler) joinDeckRoom(ctx context.Context, c *Client, deckID uuid.UUID) {
	deck, _, ok := h.deckWithAccess(ctx, c, deckID)
	if !ok {
		return
	}

	key := live.DeckRoom(deck.ID)
	h.rooms.Join(key, c.Participant)
	h.hub.JoinRoom(c, key)

	h.hub.ToUser(c.Participant.ID, "slide_session_state", map[string]interface{}{
		"current_slide_index": deck.CurrentSlideIndex,
		"slide_count":         deck.SlideCount,
		"screen_share_active": h.share.Active(deck.ID),
	})
}

// markAttendance is best-effort: a full queue or redis hiccup never fails
// the join.
func (h *Handler) markAttendance(ctx context.Context, c *Client, courseID uuid.UUID) {
	if h.queue == nil || !c.Participant.IsStudent() {
		return
	}
	session, err := h.sessions.ActiveForCourse(ctx, courseID)
	if err != nil || session == nil {
		return
	}
	att := models.Attendance{
		CourseID:  courseID,
		UserID:    c.Participant.ID,
		SessionID: session.ID,
		Status:    "present",
		MarkedAt:  time.Now().UTC(),
	}
	if err := h.queue.EnqueueAttendance(ctx, att); err != nil {
		log.Printf("enqueue attendance for user %s: %v", c.Participant.ID, err)
	}
}

func (h *Handler) handleLeaveRoom(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		Scope string    `json:"scope"`
		ID    uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	var key live.RoomKey
	switch live.RoomScope(payload.Scope) {
	case live.ScopeCourse:
		key = live.CourseRoom(payload.ID)
	case live.ScopeSlideDeck:
		key = live.DeckRoom(payload.ID)
	default:
		return
	}

	h.rooms.Leave(key, c.Participant.ID)
	h.hub.LeaveRoom(c, key)
	h.hub.ToRoom(key, "member_left", map[string]interface{}{
		"user_id":  c.Participant.ID,
		"username": c.Participant.DisplayName,
	})
}

func (h *Handler) handleCheckpointCompleted(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CheckpointID uuid.UUID `json:"checkpoint_id"`
		Mode         string    `json:"mode"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	mode := parseMode(payload.Mode)

	checkpoint, err := h.courses.GetCheckpoint(ctx, payload.CheckpointID)
	if err != nil || checkpoint == nil {
		return
	}
	course, ok := h.courseWithAccess(ctx, c, checkpoint.CourseID)
	if !ok {
		return
	}
	if c.Participant.IsInstructor() {
		h.sendError(c, "Instructors cannot mark checkpoints complete")
		return
	}

	if _, err := h.timer.Complete(ctx, c.Participant.ID, checkpoint.ID, mode); err != nil {
		log.Printf("complete checkpoint %s for user %s: %v", checkpoint.ID, c.Participant.ID, err)
		return
	}

	key := live.CourseRoom(course.ID)
	h.hub.ToRoom(key, "progress_update", map[string]interface{}{
		"user_id":       c.Participant.ID,
		"username":      c.Participant.DisplayName,
		"checkpoint_id": checkpoint.ID,
		"status":        "completed",
	})
	h.broadcastCompletionStats(ctx, course.ID, mode)
}

func (h *Handler) handleRequestStats(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID uuid.UUID `json:"course_id"`
		Mode     string    `json:"mode"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	course, ok := h.courseWithAccess(ctx, c, payload.CourseID)
	if !ok {
		return
	}

	rates, err := h.stats.CompletionRates(ctx, course.ID, parseMode(payload.Mode))
	if err != nil {
		log.Printf("completion rates for course %s: %v", course.ID, err)
		return
	}
	// Explicit requests reply point-to-point, not to the room.
	h.hub.ToUser(c.Participant.ID, "session_stats", map[string]interface{}{
		"completion_rates": rates,
	})
}

func (h *Handler) handleSendChat(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID uuid.UUID `json:"course_id"`
		Message  string    `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	course, ok := h.courseWithAccess(ctx, c, payload.CourseID)
	if !ok {
		return
	}

	msg, err := h.chat.Post(ctx, c.Participant, course.ID, payload.Message)
	if err != nil {
		// Empty messages are dropped without reply.
		return
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "new_chat_message", msg)
}

func (h *Handler) handleEditChat(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID   uuid.UUID `json:"course_id"`
		MessageID  uuid.UUID `json:"message_id"`
		NewMessage string    `json:"new_message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	course, ok := h.courseWithAccess(ctx, c, payload.CourseID)
	if !ok {
		return
	}

	msg, err := h.chat.Edit(ctx, c.Participant, course, payload.MessageID, payload.NewMessage)
	if err != nil {
		if _, forbidden := err.(*live.ForbiddenError); forbidden {
			h.sendError(c, "Permission denied")
		}
		return
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "chat_message_edited", map[string]interface{}{
		"message_id":  msg.ID,
		"new_message": msg.Message,
	})
}

func (h *Handler) handleDeleteChat(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID  uuid.UUID `json:"course_id"`
		MessageID uuid.UUID `json:"message_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	course, ok := h.courseWithAccess(ctx, c, payload.CourseID)
	if !ok {
		return
	}

	if err := h.chat.Delete(ctx, c.Participant, course, payload.MessageID); err != nil {
		if _, forbidden := err.(*live.ForbiddenError); forbidden {
			h.sendError(c, "Permission denied")
		}
		return
	}

	// Deletion marker carries just the id.
	h.hub.ToRoom(live.CourseRoom(course.ID), "chat_message_deleted", map[string]interface{}{
		"message_id": payload.MessageID,
	})
}

func (h *Handler) handleSetCurrentCheckpoint(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID     uuid.UUID `json:"course_id"`
		CheckpointID uuid.UUID `json:"checkpoint_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	course, err := h.courses.GetCourse(ctx, payload.CourseID)
	if err != nil || !h.guard.IsInstructorOf(c.Participant, course) {
		h.sendError(c, "Access denied")
		return
	}

	session, err := h.sessions.ActiveForCourse(ctx, course.ID)
	if err == nil && session != nil {
		cpID := payload.CheckpointID
		if err := h.sessions.SetCurrentCheckpoint(ctx, session.ID, &cpID); err != nil {
			log.Printf("set current checkpoint for session %s: %v", session.ID, err)
		}
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "current_checkpoint_changed", map[string]interface{}{
		"checkpoint_id": payload.CheckpointID,
	})
}

// handleTimerAction relays the instructor's classroom countdown. This is a
// broadcast-only sync, distinct from the per-student progress timers.
func (h *Handler) handleTimerAction(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID       uuid.UUID `json:"course_id"`
		CheckpointID   uuid.UUID `json:"checkpoint_id"`
		Action         string    `json:"action"`
		ElapsedSeconds int       `json:"elapsed_seconds"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	course, err := h.courses.GetCourse(ctx, payload.CourseID)
	if err != nil || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "timer_sync", map[string]interface{}{
		"checkpoint_id":   payload.CheckpointID,
		"elapsed_seconds": payload.ElapsedSeconds,
		"action":          payload.Action,
		"is_running":      payload.Action == "start" || payload.Action == "resume",
	})
}

// handleInstructorCheckpointComplete relays the instructor's own checkpoint
// state to the room so students see which checkpoints the walkthrough has
// covered. No progress record is written; this is display state only.
func (h *Handler) handleInstructorCheckpointComplete(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID       uuid.UUID `json:"course_id"`
		CheckpointID   uuid.UUID `json:"checkpoint_id"`
		Completed      bool      `json:"completed"`
		ElapsedSeconds int       `json:"elapsed_seconds"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	course, err := h.courses.GetCourse(ctx, payload.CourseID)
	if err != nil || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "instructor_checkpoint_status", map[string]interface{}{
		"checkpoint_id":   payload.CheckpointID,
		"completed":       payload.Completed,
		"elapsed_seconds": payload.ElapsedSeconds,
	})
}

func (h *Handler) handleSubmitUnderstanding(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		CourseID     uuid.UUID `json:"course_id"`
		CheckpointID uuid.UUID `json:"checkpoint_id"`
		Status       string    `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if c.Participant.IsInstructor() {
		return
	}

	course, ok := h.courseWithAccess(ctx, c, payload.CourseID)
	if !ok {
		return
	}

	tally, err := h.stats.RecordUnderstanding(ctx, c.Participant.ID, course.ID, payload.CheckpointID, payload.Status)
	if err != nil || tally == nil {
		// Invalid status or no active session: nothing to broadcast.
		return
	}

	h.hub.ToRoom(live.CourseRoom(course.ID), "understanding_updated", map[string]interface{}{
		"checkpoint_id": payload.CheckpointID,
		"understood":    tally.Understood,
		"confused":      tally.Confused,
	})
}

func (h *Handler) handleJoinSlideSession(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID `json:"deck_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	h.joinDeckRoom(ctx, c, payload.DeckID)
}

func (h *Handler) handleLeaveSlideSession(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID `json:"deck_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	key := live.DeckRoom(payload.DeckID)
	h.rooms.Leave(key, c.Participant.ID)
	h.hub.LeaveRoom(c, key)
}

func (h *Handler) handleChangeSlide(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID     uuid.UUID `json:"deck_id"`
		SlideIndex int       `json:"slide_index"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	deck, course, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}
	if payload.SlideIndex < 0 || payload.SlideIndex >= deck.SlideCount {
		return
	}

	if err := h.decks.SetCurrentSlide(ctx, deck.ID, payload.SlideIndex); err != nil {
		log.Printf("set current slide for deck %s: %v", deck.ID, err)
		return
	}

	h.hub.ToRoom(live.DeckRoom(deck.ID), "slide_changed", map[string]interface{}{
		"slide_index": payload.SlideIndex,
	})
}

func (h *Handler) handleSetSlideReaction(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID     uuid.UUID `json:"deck_id"`
		SlideIndex int       `json:"slide_index"`
		Reaction   string    `json:"reaction"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if c.Participant.IsInstructor() {
		return
	}

	deck, _, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok {
		return
	}

	aggregate, err := h.slides.SetReaction(ctx, deck, c.Participant.ID, payload.SlideIndex, models.Reaction(payload.Reaction))
	if err != nil {
		// Unknown reaction values and out-of-range indexes are ignored.
		return
	}

	h.hub.ToRoom(live.DeckRoom(deck.ID), "slide_aggregate_updated", aggregate)
}

func (h *Handler) handleRequestSlideAggregates(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID `json:"deck_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	deck, _, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok {
		return
	}

	aggregates, flagged, err := h.slides.AllAggregates(ctx, deck)
	if err != nil {
		log.Printf("slide aggregates for deck %s: %v", deck.ID, err)
		return
	}

	h.hub.ToUser(c.Participant.ID, "all_slide_aggregates", map[string]interface{}{
		"aggregates":     aggregates,
		"flagged_slides": flagged,
	})
}

func (h *Handler) handleToggleBookmark(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID     uuid.UUID `json:"deck_id"`
		SlideIndex int       `json:"slide_index"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	deck, course, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}

	update, err := h.slides.ToggleBookmark(ctx, deck, payload.SlideIndex)
	if err != nil {
		return
	}

	h.hub.ToRoom(live.DeckRoom(deck.ID), "bookmark_updated", update)
}

func (h *Handler) handleStartScreenShare(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID `json:"deck_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	deck, course, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}

	if err := h.share.Start(deck.ID, c.Participant.ID); err != nil {
		h.sendError(c, "Screen share already active for this deck")
		return
	}

	h.hub.ToRoom(live.DeckRoom(deck.ID), "screen_share_started", map[string]interface{}{
		"deck_id":         deck.ID,
		"instructor_name": c.Participant.DisplayName,
	})
}

func (h *Handler) handleStopScreenShare(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID `json:"deck_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if !c.Participant.IsInstructor() {
		return
	}

	deck, course, ok := h.deckWithAccess(ctx, c, payload.DeckID)
	if !ok || !h.guard.IsInstructorOf(c.Participant, course) {
		return
	}

	if err := h.share.Stop(deck.ID, c.Participant.ID); err != nil {
		if _, forbidden := err.(*live.ForbiddenError); forbidden {
			h.sendError(c, "Screen share is owned by another user")
		}
		return
	}

	h.hub.ToRoom(live.DeckRoom(deck.ID), "screen_share_stopped", map[string]interface{}{
		"deck_id": deck.ID,
	})
}

// handleScreenShareFrame relays one frame to everyone but the sender. Frames
// are never buffered; a missed frame is simply not retransmitted.
func (h *Handler) handleScreenShareFrame(ctx context.Context, c *Client, data json.RawMessage) {
	var payload struct {
		DeckID uuid.UUID       `json:"deck_id"`
		Frame  json.RawMessage `json:"frame"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	if len(payload.Frame) == 0 {
		return
	}

	owner, ok := h.share.Owner(payload.DeckID)
	if !ok || owner != c.Participant.ID {
		return
	}

	h.hub.ToRoomExcept(live.DeckRoom(payload.DeckID), c.Participant.ID, "screen_share_frame", map[string]interface{}{
		"frame": payload.Frame,
	})
}
