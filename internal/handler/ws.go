package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"bingo-platform/internal/service"
	"bingo-platform/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from a different origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades subscribers onto a game's event room.
type WSHandler struct {
	hub   *ws.Hub
	games *service.GameService
}

// NewWSHandler creates a WSHandler instance.
func NewWSHandler(hub *ws.Hub, games *service.GameService) *WSHandler {
	return &WSHandler{hub: hub, games: games}
}

// Subscribe handles GET /ws/games/:id.
func (h *WSHandler) Subscribe(c *gin.Context) {
	gameID := c.Param("id")
	if _, err := h.games.Get(c.Request.Context(), gameID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, gameID, userID(c), conn)
	h.hub.Register(client)

	h.hub.BroadcastToGame(gameID, ws.EventConnected, ws.ConnectedPayload{
		GameID:          gameID,
		UserID:          userID(c),
		ConnectionCount: h.hub.ConnectionCount(gameID),
	})
}