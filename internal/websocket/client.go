package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"liveclass-backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Screen-share frames ride the same socket, so the read limit has to
	// accommodate a base64 JPEG frame.
	maxMessageSize = 1 << 20
)

// Envelope is the inbound client message: an event name plus a raw payload
// decoded per event by the router.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is one websocket connection with its authenticated participant.
type Client struct {
	Participant models.Participant

	hub   SessionHub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]bool // room names this client is attached to; guarded by hub.mu
}

func newClient(hub SessionHub, conn *websocket.Conn, p models.Participant) *Client {
	return &Client{
		Participant: p,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		rooms:       make(map[string]bool),
	}
}

// enqueue hands a message to the write pump, dropping it if the client's
// buffer is full (a slow consumer never blocks a broadcast).
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

// readPump decodes inbound envelopes and hands them to the event router.
func (c *Client) readPump(route func(*Client, Envelope)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// Malformed events are dropped without reply.
			continue
		}
		route(c, env)
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
