package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// GameRepository handles game persistence. The drawn-number sequence is
// stored as a JSONB array so draw order survives round-trips.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

const gameColumns = `id, creator_id, price::text, min_tickets, status, sold_tickets,
	commission_percent::text, autostart_enabled, autostart_threshold, autostart_delay_minutes,
	drawn_numbers::text, paid_diagonal, paid_line, paid_bingo,
	created_at, reached_min_at, reached_threshold_at, last_drawn_at, finished_at`

func scanGame(row pgx.Row) (*model.Game, error) {
	var (
		g          model.Game
		price      string
		commission string
		drawn      string
	)
	err := row.Scan(
		&g.ID,
		&g.CreatorID,
		&price,
		&g.MinTickets,
		&g.Status,
		&g.SoldTickets,
		&commission,
		&g.AutostartEnabled,
		&g.AutostartThreshold,
		&g.AutostartDelayMinutes,
		&drawn,
		&g.PaidDiagonal,
		&g.PaidLine,
		&g.PaidBingo,
		&g.CreatedAt,
		&g.ReachedMinAt,
		&g.ReachedThresholdAt,
		&g.LastDrawnAt,
		&g.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", price, err)
	}
	if g.CommissionPercent, err = decimal.NewFromString(commission); err != nil {
		return nil, fmt.Errorf("failed to parse commission %q: %w", commission, err)
	}
	if err = json.Unmarshal([]byte(drawn), &g.DrawnNumbers); err != nil {
		return nil, fmt.Errorf("failed to parse drawn numbers: %w", err)
	}
	return &g, nil
}

// Create inserts a new game in OPEN state.
func (r *GameRepository) Create(ctx context.Context, g *model.Game) (*model.Game, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	query := `
		INSERT INTO games (
			id, creator_id, price, min_tickets, status, sold_tickets,
			commission_percent, autostart_enabled, autostart_threshold, autostart_delay_minutes,
			drawn_numbers, paid_diagonal, paid_line, paid_bingo, created_at
		)
		VALUES ($1, $2, $3::numeric, $4, $5, 0, $6::numeric, $7, $8, $9, '[]'::jsonb, FALSE, FALSE, FALSE, NOW())
		RETURNING ` + gameColumns

	created, err := scanGame(r.pool.QueryRow(ctx, query,
		g.ID,
		g.CreatorID,
		g.Price.String(),
		g.MinTickets,
		g.Status,
		g.CommissionPercent.String(),
		g.AutostartEnabled,
		g.AutostartThreshold,
		g.AutostartDelayMinutes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return created, nil
}

// Get retrieves a game by id.
// Returns ErrGameNotFound if the game does not exist.
func (r *GameRepository) Get(ctx context.Context, id string) (*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	g, err := scanGame(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// Update writes back every mutable field of a game. Callers hold the
// game's lock, so the read-modify-write cycle is serialized per game.
func (r *GameRepository) Update(ctx context.Context, g *model.Game) error {
	drawn, err := json.Marshal(g.DrawnNumbers)
	if err != nil {
		return fmt.Errorf("failed to encode drawn numbers: %w", err)
	}

	const query = `
		UPDATE games
		SET status = $2,
		    sold_tickets = $3,
		    drawn_numbers = $4::jsonb,
		    paid_diagonal = $5,
		    paid_line = $6,
		    paid_bingo = $7,
		    reached_min_at = $8,
		    reached_threshold_at = $9,
		    last_drawn_at = $10,
		    finished_at = $11
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		g.ID,
		g.Status,
		g.SoldTickets,
		string(drawn),
		g.PaidDiagonal,
		g.PaidLine,
		g.PaidBingo,
		g.ReachedMinAt,
		g.ReachedThresholdAt,
		g.LastDrawnAt,
		g.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// ListByStatus retrieves games in a given status, oldest first.
func (r *GameRepository) ListByStatus(ctx context.Context, status string) ([]*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

// ActiveByCreator retrieves the creator's game that is still OPEN,
// READY or RUNNING, if any. Returns ErrGameNotFound when the creator
// has no active game.
func (r *GameRepository) ActiveByCreator(ctx context.Context, creatorID string) (*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE creator_id = $1 AND status = ANY($2) LIMIT 1`

	g, err := scanGame(r.pool.QueryRow(ctx, query, creatorID, model.ActiveStatuses()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get active game: %w", err)
	}
	return g, nil
}
