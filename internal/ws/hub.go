package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// envelope is the wire format for every event.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub tracks WebSocket clients grouped into game rooms. Delivery is
// best-effort: a client that cannot keep up is dropped, never the
// broadcast.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Register adds a client to its game room and starts its pumps.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.gameID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.gameID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// remove detaches a client from its room, dropping the room when empty.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.gameID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.gameID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// ConnectionCount returns the number of clients subscribed to a game.
func (h *Hub) ConnectionCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// BroadcastToGame sends an event to every client in a game room. A
// failed or slow client loses its connection; the rest of the room
// still receives the event.
func (h *Hub) BroadcastToGame(gameID, event string, payload any) {
	msg, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[gameID]))
	for c := range h.rooms[gameID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.queue(msg) {
			log.Warn().Str("game_id", gameID).Msg("Dropping slow websocket client")
			h.remove(c)
		}
	}
}
