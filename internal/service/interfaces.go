// Package service provides business logic implementations.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// UserStore is the account persistence the services consume.
type UserStore interface {
	Create(ctx context.Context, email, hashedPassword, alias string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// WalletStore is the balance ledger the services consume. AddBalance
// accepts negative deltas for debits.
type WalletStore interface {
	Create(ctx context.Context, userID string) (*model.Wallet, error)
	GetByUser(ctx context.Context, userID string) (*model.Wallet, error)
	AddBalance(ctx context.Context, userID string, delta decimal.Decimal) (*model.Wallet, error)
}

// GameStore is the game persistence the lifecycle manager consumes.
type GameStore interface {
	Create(ctx context.Context, g *model.Game) (*model.Game, error)
	Get(ctx context.Context, id string) (*model.Game, error)
	Update(ctx context.Context, g *model.Game) error
	ListByStatus(ctx context.Context, status string) ([]*model.Game, error)
	ActiveByCreator(ctx context.Context, creatorID string) (*model.Game, error)
}

// TicketStore is the ticket persistence the lifecycle manager consumes.
type TicketStore interface {
	Create(ctx context.Context, gameID, userID string, grid model.Grid) (*model.Ticket, error)
	Update(ctx context.Context, t *model.Ticket) error
	Delete(ctx context.Context, id string) error
	ListByGame(ctx context.Context, gameID string) ([]*model.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Ticket, error)
	CountByGameAndUser(ctx context.Context, gameID, userID string) (int, error)
}

// TransactionStore records wallet movements for audit.
type TransactionStore interface {
	Create(ctx context.Context, userID, txType string, amount decimal.Decimal, description, referenceID string) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error)
}

// Broadcaster fans lifecycle events out to game rooms. Delivery is
// best-effort and never fails an operation.
type Broadcaster interface {
	BroadcastToGame(gameID, event string, payload any)
}
