package live

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"liveclass-backend/internal/models"
)

// RoomScope identifies the kind of entity a room is attached to.
type RoomScope string

const (
	ScopeCourse    RoomScope = "course"
	ScopeSlideDeck RoomScope = "slide_deck"
)

// RoomKey addresses one broadcast scope.
type RoomKey struct {
	Scope RoomScope
	ID    uuid.UUID
}

func CourseRoom(courseID uuid.UUID) RoomKey {
	return RoomKey{Scope: ScopeCourse, ID: courseID}
}

func DeckRoom(deckID uuid.UUID) RoomKey {
	return RoomKey{Scope: ScopeSlideDeck, ID: deckID}
}

// String returns the wire name of the room, e.g. "course_<id>".
func (k RoomKey) String() string {
	return fmt.Sprintf("%s_%s", k.Scope, k.ID)
}

// Rooms is the presence registry: which participants are currently joined to
// which room. Rooms are created on first join and destroyed on last leave;
// membership is process-local and lost on restart.
type Rooms struct {
	mu      sync.RWMutex
	members map[RoomKey]map[uuid.UUID]models.Participant
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[RoomKey]map[uuid.UUID]models.Participant)}
}

// Join adds the participant and returns a snapshot of current members,
// including the new one. Access must already be verified by the caller.
func (r *Rooms) Join(key RoomKey, p models.Participant) []models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.members[key]
	if !ok {
		room = make(map[uuid.UUID]models.Participant)
		r.members[key] = room
	}
	room[p.ID] = p

	return snapshot(room)
}

// Leave removes the participant; the room is dropped when it empties.
func (r *Rooms) Leave(key RoomKey, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(key, userID)
}

// DropAll removes the user from every room they hold and returns the keys of
// the rooms left. Called on abnormal disconnect.
func (r *Rooms) DropAll(userID uuid.UUID) []RoomKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []RoomKey
	for key, room := range r.members {
		if _, ok := room[userID]; ok {
			left = append(left, key)
		}
	}
	for _, key := range left {
		r.drop(key, userID)
	}
	return left
}

// Members returns a snapshot of the room's current participants.
func (r *Rooms) Members(key RoomKey) []models.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.members[key])
}

// Contains reports whether the user is currently joined to the room.
func (r *Rooms) Contains(key RoomKey, userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[key][userID]
	return ok
}

func (r *Rooms) drop(key RoomKey, userID uuid.UUID) {
	room, ok := r.members[key]
	if !ok {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.members, key)
	}
}

func snapshot(room map[uuid.UUID]models.Participant) []models.Participant {
	if len(room) == 0 {
		return nil
	}
	out := make([]models.Participant, 0, len(room))
	for _, p := range room {
		out = append(out, p)
	}
	return out
}
