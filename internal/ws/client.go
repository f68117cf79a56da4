package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer = 32

	// writeWait bounds a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a silent connection may occupy a room slot.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait so the peer can answer
	// before the read deadline fires.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

// Client is one WebSocket subscriber in a game room.
type Client struct {
	hub    *Hub
	gameID string
	userID string
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded connection. userID may be empty for
// anonymous spectators.
func NewClient(hub *Hub, gameID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		gameID: gameID,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
}

// queue hands a message to the write pump. It returns false only when
// the client is alive but cannot keep up; a closed client swallows the
// message, its removal is already in flight.
func (c *Client) queue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close marks the client dead and releases its connection. The closed
// flag and the channel close happen under the same mutex queue takes,
// so a broadcast racing a disconnect can never send on the closed
// channel.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	c.conn.Close()
}

// readPump consumes client messages and keeps the read deadline fresh
// via pong responses. The only inbound message the server understands
// is a keepalive ping.
func (c *Client) readPump() {
	defer c.hub.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Str("game_id", c.gameID).Str("user_id", c.userID).Msg("Client disconnected")
			} else {
				log.Debug().Err(err).Str("game_id", c.gameID).Msg("Client read error")
			}
			return
		}

		var data map[string]any
		if err := json.Unmarshal(message, &data); err != nil {
			continue
		}
		if data["type"] == "ping" {
			msg, _ := json.Marshal(envelope{Type: "pong", Payload: map[string]any{}})
			c.queue(msg)
		}
	}
}

// writePump drains the send channel onto the connection and pings the
// peer so dead connections trip the read deadline instead of lingering.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("game_id", c.gameID).Msg("Client write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}