package live

import "github.com/google/uuid"

// Broadcaster is the outbound side of the engine: room fanout and
// point-to-point delivery. The websocket hub implements it; tests use an
// in-memory recorder.
type Broadcaster interface {
	// ToRoom delivers an event to every member of the room.
	ToRoom(room RoomKey, event string, payload interface{})
	// ToRoomExcept delivers an event to every member except one user
	// (used for frame relay, where the sender must not echo).
	ToRoomExcept(room RoomKey, except uuid.UUID, event string, payload interface{})
	// ToUser delivers an event to all of one user's connections.
	ToUser(userID uuid.UUID, event string, payload interface{})
}
