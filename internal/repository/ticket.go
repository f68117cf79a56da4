package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// TicketRepository handles ticket persistence. The 5x5 card and the
// win list are stored as JSONB.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new TicketRepository instance.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, game_id, user_id, numbers::text, payout::text, wins::text, refunded`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		t       model.Ticket
		numbers string
		payout  string
		wins    string
	)
	if err := row.Scan(&t.ID, &t.GameID, &t.UserID, &numbers, &payout, &wins, &t.Refunded); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(numbers), &t.Numbers); err != nil {
		return nil, fmt.Errorf("failed to parse ticket grid: %w", err)
	}
	p, err := decimal.NewFromString(payout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payout %q: %w", payout, err)
	}
	t.Payout = p
	if err := json.Unmarshal([]byte(wins), &t.Wins); err != nil {
		return nil, fmt.Errorf("failed to parse win list: %w", err)
	}
	return &t, nil
}

// Create inserts a new ticket for a purchase.
func (r *TicketRepository) Create(ctx context.Context, gameID, userID string, grid model.Grid) (*model.Ticket, error) {
	numbers, err := json.Marshal(grid)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket grid: %w", err)
	}

	query := `
		INSERT INTO tickets (id, game_id, user_id, numbers, payout, wins, refunded)
		VALUES ($1, $2, $3, $4::jsonb, 0, '[]'::jsonb, FALSE)
		RETURNING ` + ticketColumns

	t, err := scanTicket(r.pool.QueryRow(ctx, query, uuid.NewString(), gameID, userID, string(numbers)))
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return t, nil
}

// Update writes back payout, win list and refunded flag.
func (r *TicketRepository) Update(ctx context.Context, t *model.Ticket) error {
	wins, err := json.Marshal(t.Wins)
	if err != nil {
		return fmt.Errorf("failed to encode win list: %w", err)
	}

	const query = `
		UPDATE tickets
		SET payout = $2::numeric, wins = $3::jsonb, refunded = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, t.ID, t.Payout.String(), string(wins), t.Refunded)
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// Delete removes a ticket. Used to unwind a half-finished purchase.
func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// ListByGame retrieves every ticket sold for a game.
func (r *TicketRepository) ListByGame(ctx context.Context, gameID string) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE game_id = $1`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// ListByUser retrieves all tickets owned by a user across games.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// CountByGameAndUser returns how many tickets a user holds in a game.
func (r *TicketRepository) CountByGameAndUser(ctx context.Context, gameID, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE game_id = $1 AND user_id = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, gameID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}
