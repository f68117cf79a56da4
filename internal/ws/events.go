// Package ws implements the per-game WebSocket fan-out. The hub is an
// explicit object injected into the lifecycle manager, so it can be
// swapped for a broker-backed implementation without touching the core.
package ws

// Event names carried on the wire. Each message is a JSON envelope
// {"type": <event>, "payload": {...}}.
const (
	EventConnected     = "connected"
	EventGameStarted   = "game_started"
	EventNumberDrawn   = "number_drawn"
	EventWinner        = "winner"
	EventGameFinished  = "game_finished"
	EventGameCancelled = "game_cancelled"
	EventPlayerJoined  = "player_joined"
)

// ConnectedPayload confirms a subscription to a game room.
type ConnectedPayload struct {
	GameID          string `json:"game_id"`
	UserID          string `json:"user_id,omitempty"`
	ConnectionCount int    `json:"connection_count"`
}

// GameStartedPayload announces the OPEN -> RUNNING transition.
type GameStartedPayload struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
}

// NumberDrawnPayload carries one draw and the paid-flag snapshot.
type NumberDrawnPayload struct {
	Number       int    `json:"number"`
	DrawnNumbers []int  `json:"drawn_numbers"`
	PaidDiagonal bool   `json:"paid_diagonal"`
	PaidLine     bool   `json:"paid_line"`
	PaidBingo    bool   `json:"paid_bingo"`
}

// WinnerPayload is emitted once per winning ticket per category.
type WinnerPayload struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// GameFinishedPayload announces a terminal FINISHED game.
type GameFinishedPayload struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
}

// GameCancelledPayload announces a cancellation and how many tickets
// were refunded.
type GameCancelledPayload struct {
	GameID          string `json:"game_id"`
	Status          string `json:"status"`
	RefundedTickets int    `json:"refunded_tickets"`
}

// PlayerJoinedPayload announces a ticket sale while the game is OPEN.
type PlayerJoinedPayload struct {
	GameID      string `json:"game_id"`
	SoldTickets int    `json:"sold_tickets"`
}
