package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// TransactionRepository records wallet movements for audit. Amounts
// are signed: positive for income, negative for expenses.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create records one wallet movement. referenceID points at the game
// or ticket that caused it and may be empty.
func (r *TransactionRepository) Create(ctx context.Context, userID, txType string, amount decimal.Decimal, description, referenceID string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (id, user_id, type, amount, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, NOW())
		RETURNING id, user_id, type, amount::text, description, reference_id, created_at
	`

	var (
		tx     model.Transaction
		amtStr string
	)
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), userID, txType, amount.String(), description, referenceID).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&amtStr,
		&tx.Description,
		&tx.ReferenceID,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(amtStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amtStr, err)
	}
	return &tx, nil
}

// ListByUser retrieves a user's movements, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, user_id, type, amount::text, description, reference_id, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*model.Transaction
	for rows.Next() {
		var (
			tx     model.Transaction
			amtStr string
		)
		err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &amtStr, &tx.Description, &tx.ReferenceID, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amtStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount %q: %w", amtStr, err)
		}
		txs = append(txs, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}
