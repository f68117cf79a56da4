package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/apperr"
	"bingo-platform/internal/model"
	"bingo-platform/internal/service"
)

// GameHandler serves the game lifecycle endpoints.
type GameHandler struct {
	games *service.GameService
}

// NewGameHandler creates a GameHandler instance.
func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type createGameRequest struct {
	Price                 decimal.Decimal `json:"price" binding:"required"`
	MinTickets            int             `json:"min_tickets" binding:"required"`
	AutostartEnabled      bool            `json:"autostart_enabled"`
	AutostartThreshold    int             `json:"autostart_threshold"`
	AutostartDelayMinutes int             `json:"autostart_delay_minutes"`
}

type gameResponse struct {
	ID                string     `json:"id"`
	CreatorID         string     `json:"creator_id"`
	Price             string     `json:"price"`
	MinTickets        int        `json:"min_tickets"`
	Status            string     `json:"status"`
	SoldTickets       int        `json:"sold_tickets"`
	CommissionPercent string     `json:"commission_percent"`
	AutostartEnabled  bool       `json:"autostart_enabled"`
	DrawnNumbers      []int      `json:"drawn_numbers"`
	PaidDiagonal      bool       `json:"paid_diagonal"`
	PaidLine          bool       `json:"paid_line"`
	PaidBingo         bool       `json:"paid_bingo"`
	CreatedAt         string     `json:"created_at"`
	FinishedAt        *string    `json:"finished_at,omitempty"`
}

func toGameResponse(g *model.Game) gameResponse {
	resp := gameResponse{
		ID:                g.ID,
		CreatorID:         g.CreatorID,
		Price:             g.Price.String(),
		MinTickets:        g.MinTickets,
		Status:            g.Status,
		SoldTickets:       g.SoldTickets,
		CommissionPercent: g.CommissionPercent.String(),
		AutostartEnabled:  g.AutostartEnabled,
		DrawnNumbers:      g.DrawnNumbers,
		PaidDiagonal:      g.PaidDiagonal,
		PaidLine:          g.PaidLine,
		PaidBingo:         g.PaidBingo,
		CreatedAt:         g.CreatedAt.Format(time.RFC3339),
	}
	if g.FinishedAt != nil {
		s := g.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &s
	}
	return resp
}

type ticketResponse struct {
	ID       string   `json:"id"`
	GameID   string   `json:"game_id"`
	UserID   string   `json:"user_id"`
	Numbers  [][]int  `json:"numbers"`
	Payout   string   `json:"payout"`
	Wins     []string `json:"wins"`
	Refunded bool     `json:"refunded"`
}

func toTicketResponse(t *model.Ticket) ticketResponse {
	rows := make([][]int, 5)
	for i := range t.Numbers {
		rows[i] = append([]int(nil), t.Numbers[i][:]...)
	}
	return ticketResponse{
		ID:       t.ID,
		GameID:   t.GameID,
		UserID:   t.UserID,
		Numbers:  rows,
		Payout:   t.Payout.String(),
		Wins:     t.Wins,
		Refunded: t.Refunded,
	}
}

// Create handles POST /games.
func (h *GameHandler) Create(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return
	}

	game, err := h.games.Create(c.Request.Context(), userID(c), service.CreateGameInput{
		Price:                 req.Price,
		MinTickets:            req.MinTickets,
		AutostartEnabled:      req.AutostartEnabled,
		AutostartThreshold:    req.AutostartThreshold,
		AutostartDelayMinutes: req.AutostartDelayMinutes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGameResponse(game))
}

// List handles GET /games?status=OPEN.
func (h *GameHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", model.StatusOpen)
	games, err := h.games.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, toGameResponse(g))
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

// Get handles GET /games/:id.
func (h *GameHandler) Get(c *gin.Context) {
	game, err := h.games.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGameResponse(game))
}

// Start handles POST /games/:id/start.
func (h *GameHandler) Start(c *gin.Context) {
	game, err := h.games.Start(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGameResponse(game))
}

// Cancel handles POST /games/:id/cancel.
func (h *GameHandler) Cancel(c *gin.Context) {
	game, err := h.games.Cancel(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGameResponse(game))
}

// Draw handles POST /games/:id/draw.
func (h *GameHandler) Draw(c *gin.Context) {
	res, err := h.games.Draw(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"number":        res.Number,
		"drawn_numbers": res.DrawnNumbers,
		"paid_diagonal": res.PaidDiagonal,
		"paid_line":     res.PaidLine,
		"paid_bingo":    res.PaidBingo,
		"winners":       res.Winners,
	})
}

type purchaseRequest struct {
	// Numbers is optional: absent means an auto-generated card.
	Numbers [][]int `json:"numbers"`
}

// Purchase handles POST /games/:id/tickets.
func (h *GameHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
			return
		}
	}

	ticket, err := h.games.Purchase(c.Request.Context(), c.Param("id"), userID(c), req.Numbers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

// MyTickets handles GET /tickets/me.
func (h *GameHandler) MyTickets(c *gin.Context) {
	tickets, err := h.games.MyTickets(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": out})
}