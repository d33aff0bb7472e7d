package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"liveclass-backend/internal/live"
)

// wireMessage is the envelope every client receives.
type wireMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// roomEnvelope is the internal form published on the redis room channel. The
// optional Exclude field keeps a sender from receiving its own frame relay.
type roomEnvelope struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Exclude *uuid.UUID      `json:"exclude,omitempty"`
}

// Hub tracks local connections and fans room broadcasts out through redis
// pub/sub, one channel per room. A room channel is subscribed while the room
// has local members and dropped when the last one leaves. Within one room
// channel message order is preserved, so clients observe mutations and the
// aggregates derived from them in causal order.
type Hub struct {
	mu        sync.RWMutex
	userConns map[uuid.UUID][]*Client
	rooms     map[string]map[*Client]bool
	subs      map[string]*redis.PubSub
	redis     *redis.Client

	// OnDisconnect is invoked after a client's hub cleanup, so the engine
	// can release room membership and any screen share the user owned.
	OnDisconnect func(c *Client)
}

// SessionHub is the hub surface the clients and the event router depend on.
// *Hub implements it; handler tests substitute a recording fake.
type SessionHub interface {
	live.Broadcaster
	Register(c *Client)
	Unregister(c *Client)
	JoinRoom(c *Client, key live.RoomKey)
	LeaveRoom(c *Client, key live.RoomKey)
	SetOnDisconnect(fn func(*Client))
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		userConns: make(map[uuid.UUID][]*Client),
		rooms:     make(map[string]map[*Client]bool),
		subs:      make(map[string]*redis.PubSub),
		redis:     redisClient,
	}
}

// SetOnDisconnect registers the engine's disconnect hook.
func (h *Hub) SetOnDisconnect(fn func(*Client)) {
	h.OnDisconnect = fn
}

// Register adds a connected client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.userConns[c.Participant.ID] = append(h.userConns[c.Participant.ID], c)
	log.Printf("WebSocket connected: user %s (%d conns)", c.Participant.ID, len(h.userConns[c.Participant.ID]))
}

// Unregister drops the client from every room and from the user index, then
// runs the disconnect hook.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()

	for room := range c.rooms {
		h.removeFromRoom(room, c)
	}
	c.rooms = make(map[string]bool)

	conns := h.userConns[c.Participant.ID]
	for i, other := range conns {
		if other == c {
			h.userConns[c.Participant.ID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.userConns[c.Participant.ID]) == 0 {
		delete(h.userConns, c.Participant.ID)
	}
	h.mu.Unlock()

	close(c.send)
	log.Printf("WebSocket disconnected: user %s", c.Participant.ID)

	if h.OnDisconnect != nil {
		h.OnDisconnect(c)
	}
}

// JoinRoom attaches the client to a room's fanout. The first local member
// establishes the room's redis subscription, and the SUBSCRIBE is confirmed
// before JoinRoom returns: a broadcast fired right after joining must not be
// able to beat the subscription to redis, or the joiner misses the very
// events its own join triggered.
func (h *Hub) JoinRoom(c *Client, key live.RoomKey) {
	room := key.String()

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members

		pubsub := h.redis.Subscribe(context.Background(), "room:"+room)
		if _, err := pubsub.Receive(context.Background()); err != nil {
			log.Printf("subscribe room %s: %v", room, err)
			pubsub.Close()
		} else {
			h.subs[room] = pubsub
			go h.readRoom(room, pubsub)
		}
	}
	members[c] = true
	c.rooms[room] = true
}

// LeaveRoom detaches the client; the last local member stops the
// subscription.
func (h *Hub) LeaveRoom(c *Client, key live.RoomKey) {
	room := key.String()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(room, c)
	delete(c.rooms, room)
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		if pubsub, ok := h.subs[room]; ok {
			pubsub.Close()
			delete(h.subs, room)
		}
	}
}

// ToRoom implements live.Broadcaster.
func (h *Hub) ToRoom(room live.RoomKey, event string, payload interface{}) {
	h.publish(room, event, payload, nil)
}

// ToRoomExcept implements live.Broadcaster.
func (h *Hub) ToRoomExcept(room live.RoomKey, except uuid.UUID, event string, payload interface{}) {
	h.publish(room, event, payload, &except)
}

// ToUser implements live.Broadcaster. Point-to-point replies go straight to
// the user's local connections without touching redis.
func (h *Hub) ToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(wireMessage{Event: event, Data: payload})
	if err != nil {
		log.Printf("marshal %s for user %s: %v", event, userID, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.userConns[userID] {
		c.enqueue(data)
	}
}

func (h *Hub) publish(room live.RoomKey, event string, payload interface{}, exclude *uuid.UUID) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("marshal %s for room %s: %v", event, room, err)
		return
	}
	env, err := json.Marshal(roomEnvelope{Event: event, Data: data, Exclude: exclude})
	if err != nil {
		log.Printf("marshal envelope for room %s: %v", room, err)
		return
	}

	ctx := context.Background()
	if err := h.redis.Publish(ctx, "room:"+room.String(), env).Err(); err != nil {
		log.Printf("publish %s to room %s: %v", event, room, err)
	}
}

// readRoom drains an already-confirmed subscription; it exits when the last
// local member leaves and the subscription is closed.
func (h *Hub) readRoom(room string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		h.deliver(room, []byte(msg.Payload))
	}
}

// deliver fans one room message out to the local members.
func (h *Hub) deliver(room string, raw []byte) {
	var env roomEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("bad envelope on room %s: %v", room, err)
		return
	}
	data, err := json.Marshal(wireMessage{Event: env.Event, Data: env.Data})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if env.Exclude != nil && c.Participant.ID == *env.Exclude {
			continue
		}
		c.enqueue(data)
	}
}
