// Package model defines the data models for the bingo platform.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Game statuses. Transitions are one-directional; FINISHED and
// CANCELLED are terminal.
const (
	StatusOpen      = "OPEN"
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
)

// ActiveStatuses returns the statuses that count as an active game
// for the one-active-game-per-creator rule.
func ActiveStatuses() []string {
	return []string{StatusOpen, StatusReady, StatusRunning}
}

// Prize categories, in the order they are evaluated on each draw.
const (
	CategoryDiagonal = "DIAGONAL"
	CategoryLine     = "LINE"
	CategoryBingo    = "BINGO"
)

// User represents a registered account.
type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	Alias          string    `db:"alias"`
	IsVerified     bool      `db:"is_verified"`
	IsAdmin        bool      `db:"is_admin"`
	CreatedAt      time.Time `db:"created_at"`
}

// Wallet is a user's balance ledger. Exactly one wallet per user.
type Wallet struct {
	ID      string          `db:"id"`
	UserID  string          `db:"user_id"`
	Balance decimal.Decimal `db:"balance"`
}

// Game is one bingo round and its full lifecycle state.
type Game struct {
	ID                string          `db:"id"`
	CreatorID         string          `db:"creator_id"`
	Price             decimal.Decimal `db:"price"`
	MinTickets        int             `db:"min_tickets"`
	Status            string          `db:"status"`
	SoldTickets       int             `db:"sold_tickets"`
	CommissionPercent decimal.Decimal `db:"commission_percent"`

	AutostartEnabled      bool `db:"autostart_enabled"`
	AutostartThreshold    int  `db:"autostart_threshold"`
	AutostartDelayMinutes int  `db:"autostart_delay_minutes"`

	// DrawnNumbers holds at most 75 distinct values in [1,75],
	// in draw order.
	DrawnNumbers []int `db:"drawn_numbers"`

	// Paid flags are set once per category and never reset.
	PaidDiagonal bool `db:"paid_diagonal"`
	PaidLine     bool `db:"paid_line"`
	PaidBingo    bool `db:"paid_bingo"`

	CreatedAt          time.Time  `db:"created_at"`
	ReachedMinAt       *time.Time `db:"reached_min_at"`
	ReachedThresholdAt *time.Time `db:"reached_threshold_at"`
	LastDrawnAt        *time.Time `db:"last_drawn_at"`
	FinishedAt         *time.Time `db:"finished_at"`
}

// IsTerminal reports whether the game can no longer be mutated.
func (g *Game) IsTerminal() bool {
	return g.Status == StatusFinished || g.Status == StatusCancelled
}

// CategoryPaid reports whether the given prize category has already
// been paid out for this game.
func (g *Game) CategoryPaid(category string) bool {
	switch category {
	case CategoryDiagonal:
		return g.PaidDiagonal
	case CategoryLine:
		return g.PaidLine
	case CategoryBingo:
		return g.PaidBingo
	}
	return false
}

// SetCategoryPaid marks a prize category as paid. There is no way to
// unset a flag.
func (g *Game) SetCategoryPaid(category string) {
	switch category {
	case CategoryDiagonal:
		g.PaidDiagonal = true
	case CategoryLine:
		g.PaidLine = true
	case CategoryBingo:
		g.PaidBingo = true
	}
}

// Grid is a 5x5 bingo card. Cell [2][2] is the free center, stored
// as zero.
type Grid [5][5]int

// Ticket is one purchased card within a game.
type Ticket struct {
	ID       string          `db:"id"`
	GameID   string          `db:"game_id"`
	UserID   string          `db:"user_id"`
	Numbers  Grid            `db:"numbers"`
	Payout   decimal.Decimal `db:"payout"`
	Wins     []string        `db:"wins"`
	Refunded bool            `db:"refunded"`
}

// HasWin reports whether a category was already credited to this ticket.
func (t *Ticket) HasWin(category string) bool {
	for _, w := range t.Wins {
		if w == category {
			return true
		}
	}
	return false
}

// Transaction types for categorizing wallet movements.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdraw   = "withdraw"
	TxTypePurchase   = "purchase"
	TxTypePrize      = "prize"
	TxTypeRefund     = "refund"
	TxTypeCommission = "commission"
)

// Transaction records one wallet movement. Amount is positive for
// income and negative for expenses.
type Transaction struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	Type        string          `db:"type"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	ReferenceID string          `db:"reference_id"`
	CreatedAt   time.Time       `db:"created_at"`
}
