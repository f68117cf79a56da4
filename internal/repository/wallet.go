package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// WalletRepository handles wallet persistence. Balances are NUMERIC in
// the database and move through the wire as text to keep decimal
// amounts exact.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository instance.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var (
		w       model.Wallet
		balance string
	)
	if err := row.Scan(&w.ID, &w.UserID, &balance); err != nil {
		return nil, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}
	w.Balance = b
	return &w, nil
}

// Create inserts a zero-balance wallet for a user.
func (r *WalletRepository) Create(ctx context.Context, userID string) (*model.Wallet, error) {
	const query = `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, 0)
		RETURNING id, user_id, balance::text
	`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, uuid.NewString(), userID))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}

// GetByUser retrieves the wallet owned by a user.
// Returns ErrWalletNotFound if it does not exist.
func (r *WalletRepository) GetByUser(ctx context.Context, userID string) (*model.Wallet, error) {
	const query = `SELECT id, user_id, balance::text FROM wallets WHERE user_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// AddBalance moves a user's balance by delta, which may be negative.
// The caller holds the user's lock; the balance check against overdraw
// happens there, against the same serialized view.
func (r *WalletRepository) AddBalance(ctx context.Context, userID string, delta decimal.Decimal) (*model.Wallet, error) {
	const query = `
		UPDATE wallets
		SET balance = balance + $2::numeric
		WHERE user_id = $1
		RETURNING id, user_id, balance::text
	`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID, delta.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	return w, nil
}
