package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/apperr"
	"bingo-platform/internal/bingo"
	"bingo-platform/internal/config"
	"bingo-platform/internal/model"
	"bingo-platform/internal/pkg/lock"
	"bingo-platform/internal/repository"
	"bingo-platform/internal/ws"
)

// Policy carries the game rules that are configuration rather than
// code: price quantization, per-player ticket cap, self-play, the
// commission rate and the prize scheme.
type Policy struct {
	MinPrice          decimal.Decimal
	PriceStep         decimal.Decimal
	MaxTicketsPerUser int
	AllowCreatorPlay  bool
	CommissionPercent decimal.Decimal
	Scheme            bingo.Scheme
}

// PolicyFromConfig builds the runtime policy from configuration.
func PolicyFromConfig(cfg *config.GameConfig) Policy {
	return Policy{
		MinPrice:          cfg.MinPriceDecimal(),
		PriceStep:         cfg.PriceStepDecimal(),
		MaxTicketsPerUser: cfg.MaxTicketsPerUser,
		AllowCreatorPlay:  cfg.AllowCreatorPlay,
		CommissionPercent: cfg.CommissionDecimal(),
		Scheme: bingo.Scheme{
			DiagonalBps: cfg.DiagonalBps,
			LineBps:     cfg.LineBps,
			BingoBps:    cfg.BingoBps,
		},
	}
}

// GameService owns the game state machine: creation, ticket sales,
// start, the draw/payout step and cancellation with refunds. Every
// mutation of one game runs under that game's lock; wallet movements
// additionally take the owning user's lock, always after the game lock.
type GameService struct {
	games   GameStore
	tickets TicketStore
	wallets WalletStore
	users   UserStore
	txs     TransactionStore
	events  Broadcaster
	locks   *lock.KeyLock
	policy  Policy

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewGameService creates a GameService instance.
func NewGameService(
	games GameStore,
	tickets TicketStore,
	wallets WalletStore,
	users UserStore,
	txs TransactionStore,
	events Broadcaster,
	locks *lock.KeyLock,
	policy Policy,
) *GameService {
	return &GameService{
		games:   games,
		tickets: tickets,
		wallets: wallets,
		users:   users,
		txs:     txs,
		events:  events,
		locks:   locks,
		policy:  policy,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *GameService) gameKey(gameID string) string   { return "game:" + gameID }
func (s *GameService) walletKey(userID string) string { return "wallet:" + userID }

// newCard generates a fresh card. The shared rng is not safe for
// concurrent use, hence the mutex.
func (s *GameService) newCard() model.Grid {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return bingo.Generate(s.rng)
}

func (s *GameService) drawNumber(drawn []int) (int, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return bingo.DrawNext(drawn, s.rng)
}

// CreateGameInput carries the creator-chosen parameters of a new game.
type CreateGameInput struct {
	Price                 decimal.Decimal
	MinTickets            int
	AutostartEnabled      bool
	AutostartThreshold    int
	AutostartDelayMinutes int
}

// Create opens a new game. The creator must be verified and may hold
// at most one active game; the price must meet the configured minimum
// and quantization step.
func (s *GameService) Create(ctx context.Context, creatorID string, in CreateGameInput) (*model.Game, error) {
	creator, err := s.users.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, fmt.Errorf("failed to load creator: %w", err)
	}
	if !creator.IsVerified {
		return nil, apperr.New(apperr.Forbidden, "account is not verified")
	}

	if in.Price.LessThan(s.policy.MinPrice) || !in.Price.Mod(s.policy.PriceStep).IsZero() {
		return nil, apperr.Newf(apperr.InvalidInput,
			"price must be at least %s and a multiple of %s",
			s.policy.MinPrice, s.policy.PriceStep)
	}
	if in.MinTickets < 1 {
		return nil, apperr.New(apperr.InvalidInput, "min_tickets must be at least 1")
	}
	if in.AutostartEnabled && in.AutostartThreshold < 1 {
		return nil, apperr.New(apperr.InvalidInput, "autostart requires a positive threshold")
	}

	if _, err := s.games.ActiveByCreator(ctx, creatorID); err == nil {
		return nil, apperr.New(apperr.Conflict, "creator already has an active game")
	} else if !errors.Is(err, repository.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to check active games: %w", err)
	}

	g, err := s.games.Create(ctx, &model.Game{
		CreatorID:             creatorID,
		Price:                 in.Price,
		MinTickets:            in.MinTickets,
		Status:                model.StatusOpen,
		CommissionPercent:     s.policy.CommissionPercent,
		AutostartEnabled:      in.AutostartEnabled,
		AutostartThreshold:    in.AutostartThreshold,
		AutostartDelayMinutes: in.AutostartDelayMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Info().
		Str("game_id", g.ID).
		Str("creator_id", creatorID).
		Str("price", g.Price.String()).
		Int("min_tickets", g.MinTickets).
		Msg("Game created")

	return g, nil
}

// Get retrieves one game.
func (s *GameService) Get(ctx context.Context, gameID string) (*model.Game, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, apperr.New(apperr.NotFound, "game not found")
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

// List retrieves games filtered by status.
func (s *GameService) List(ctx context.Context, status string) ([]*model.Game, error) {
	return s.games.ListByStatus(ctx, status)
}

// MyTickets retrieves all tickets owned by a user.
func (s *GameService) MyTickets(ctx context.Context, userID string) ([]*model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

// Purchase sells one ticket of an OPEN game to a player. A nil grid
// buys an auto-generated card. Debit, ticket insert, sold counter and
// the reached-minimum stamp form one unit under the game's lock.
func (s *GameService) Purchase(ctx context.Context, gameID, userID string, rows [][]int) (*model.Ticket, error) {
	var ticket *model.Ticket
	err := s.locks.WithLock(s.gameKey(gameID), func() error {
		g, err := s.games.Get(ctx, gameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return apperr.New(apperr.NotFound, "game not found")
			}
			return fmt.Errorf("failed to get game: %w", err)
		}
		if g.Status != model.StatusOpen {
			return apperr.New(apperr.Conflict, "game is not open for ticket sales")
		}

		buyer, err := s.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperr.New(apperr.NotFound, "user not found")
			}
			return fmt.Errorf("failed to load buyer: %w", err)
		}
		if !buyer.IsVerified {
			return apperr.New(apperr.Forbidden, "account is not verified")
		}
		if g.CreatorID == userID && !s.policy.AllowCreatorPlay {
			return apperr.New(apperr.Forbidden, "creator cannot play their own game")
		}

		count, err := s.tickets.CountByGameAndUser(ctx, gameID, userID)
		if err != nil {
			return fmt.Errorf("failed to count tickets: %w", err)
		}
		if count >= s.policy.MaxTicketsPerUser {
			return apperr.Newf(apperr.Conflict, "maximum %d tickets per game", s.policy.MaxTicketsPerUser)
		}

		var grid model.Grid
		if rows == nil {
			grid = s.newCard()
		} else {
			if grid, err = bingo.FromRows(rows); err != nil {
				return apperr.Wrap(apperr.InvalidInput, "malformed card", err)
			}
			if err = bingo.Validate(grid); err != nil {
				return apperr.Wrap(apperr.InvalidInput, "invalid card", err)
			}
		}

		return s.locks.WithLock(s.walletKey(userID), func() error {
			wallet, err := s.wallets.GetByUser(ctx, userID)
			if err != nil {
				if errors.Is(err, repository.ErrWalletNotFound) {
					return apperr.New(apperr.InsufficientFunds, "insufficient balance")
				}
				return fmt.Errorf("failed to get wallet: %w", err)
			}
			if wallet.Balance.LessThan(g.Price) {
				return apperr.New(apperr.InsufficientFunds, "insufficient balance")
			}

			if _, err = s.wallets.AddBalance(ctx, userID, g.Price.Neg()); err != nil {
				return fmt.Errorf("failed to debit wallet: %w", err)
			}

			ticket, err = s.tickets.Create(ctx, gameID, userID, grid)
			if err != nil {
				// Give the money back; the purchase did not happen.
				if _, rbErr := s.wallets.AddBalance(ctx, userID, g.Price); rbErr != nil {
					log.Error().Err(rbErr).Str("user_id", userID).Msg("Failed to roll back debit")
				}
				return fmt.Errorf("failed to create ticket: %w", err)
			}

			g.SoldTickets++
			if g.SoldTickets >= g.MinTickets && g.ReachedMinAt == nil {
				now := time.Now()
				g.ReachedMinAt = &now
			}
			if err = s.games.Update(ctx, g); err != nil {
				// Unwind the debit and the ticket so a failed counter
				// update leaves no partial purchase behind.
				if delErr := s.tickets.Delete(ctx, ticket.ID); delErr != nil {
					log.Error().Err(delErr).Str("ticket_id", ticket.ID).Msg("Failed to roll back ticket")
				}
				if _, rbErr := s.wallets.AddBalance(ctx, userID, g.Price); rbErr != nil {
					log.Error().Err(rbErr).Str("user_id", userID).Msg("Failed to roll back debit")
				}
				ticket = nil
				return fmt.Errorf("failed to update game: %w", err)
			}

			if _, err = s.txs.Create(ctx, userID, model.TxTypePurchase, g.Price.Neg(),
				"bingo ticket purchase", ticket.ID); err != nil {
				log.Error().Err(err).Str("ticket_id", ticket.ID).Msg("Failed to record purchase transaction")
			}

			s.events.BroadcastToGame(gameID, ws.EventPlayerJoined, ws.PlayerJoinedPayload{
				GameID:      gameID,
				SoldTickets: g.SoldTickets,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Start transitions OPEN -> RUNNING. Only the creator may start, and
// only after the minimum ticket count was sold.
func (s *GameService) Start(ctx context.Context, gameID, userID string) (*model.Game, error) {
	var game *model.Game
	err := s.locks.WithLock(s.gameKey(gameID), func() error {
		g, err := s.games.Get(ctx, gameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return apperr.New(apperr.NotFound, "game not found")
			}
			return fmt.Errorf("failed to get game: %w", err)
		}
		if g.CreatorID != userID {
			return apperr.New(apperr.Forbidden, "only the creator can start the game")
		}
		if g.Status != model.StatusOpen {
			return apperr.New(apperr.Conflict, "game is not open")
		}
		if g.SoldTickets < g.MinTickets {
			return apperr.New(apperr.Conflict, "minimum ticket count not reached")
		}

		g.Status = model.StatusRunning
		if err = s.games.Update(ctx, g); err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		s.events.BroadcastToGame(gameID, ws.EventGameStarted, ws.GameStartedPayload{
			GameID: gameID,
			Status: g.Status,
		})
		log.Info().Str("game_id", gameID).Msg("Game started")
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// Cancel aborts an OPEN or READY game and refunds every ticket at full
// price. Only the creator may cancel.
func (s *GameService) Cancel(ctx context.Context, gameID, userID string) (*model.Game, error) {
	var game *model.Game
	err := s.locks.WithLock(s.gameKey(gameID), func() error {
		g, err := s.games.Get(ctx, gameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return apperr.New(apperr.NotFound, "game not found")
			}
			return fmt.Errorf("failed to get game: %w", err)
		}
		if g.CreatorID != userID {
			return apperr.New(apperr.Forbidden, "only the creator can cancel the game")
		}
		if g.Status != model.StatusOpen && g.Status != model.StatusReady {
			return apperr.New(apperr.Conflict, "game can no longer be cancelled")
		}

		if err = s.cancelLocked(ctx, g); err != nil {
			return err
		}
		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

// cancelLocked refunds all non-refunded tickets and moves the game to
// CANCELLED. The caller holds the game's lock. The per-ticket refunded
// flag makes a retried cancellation refund each ticket at most once.
func (s *GameService) cancelLocked(ctx context.Context, g *model.Game) error {
	tickets, err := s.tickets.ListByGame(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	refunded := 0
	for _, t := range tickets {
		if t.Refunded {
			continue
		}
		err := s.locks.WithLock(s.walletKey(t.UserID), func() error {
			if _, err := s.wallets.AddBalance(ctx, t.UserID, g.Price); err != nil {
				return fmt.Errorf("failed to refund wallet: %w", err)
			}
			t.Refunded = true
			if err := s.tickets.Update(ctx, t); err != nil {
				return fmt.Errorf("failed to mark ticket refunded: %w", err)
			}
			if _, err := s.txs.Create(ctx, t.UserID, model.TxTypeRefund, g.Price,
				"bingo ticket refund", t.ID); err != nil {
				log.Error().Err(err).Str("ticket_id", t.ID).Msg("Failed to record refund transaction")
			}
			return nil
		})
		if err != nil {
			return err
		}
		refunded++
	}

	g.Status = model.StatusCancelled
	if err := s.games.Update(ctx, g); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	s.events.BroadcastToGame(g.ID, ws.EventGameCancelled, ws.GameCancelledPayload{
		GameID:          g.ID,
		Status:          g.Status,
		RefundedTickets: refunded,
	})
	log.Info().Str("game_id", g.ID).Int("refunded", refunded).Msg("Game cancelled")
	return nil
}

// DrawResult is the outcome of one draw step.
type DrawResult struct {
	Number       int
	DrawnNumbers []int
	PaidDiagonal bool
	PaidLine     bool
	PaidBingo    bool
	Winners      []ws.WinnerPayload
}

// Draw reveals the next number and settles any prize categories it
// completes, in the fixed order diagonal, line, full card. Each
// category pays at most once per game; simultaneous winners split the
// category slice evenly. A full-card win finishes the game and credits
// half the commission to the creator.
func (s *GameService) Draw(ctx context.Context, gameID, userID string) (*DrawResult, error) {
	var result *DrawResult
	err := s.locks.WithLock(s.gameKey(gameID), func() error {
		g, err := s.games.Get(ctx, gameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return apperr.New(apperr.NotFound, "game not found")
			}
			return fmt.Errorf("failed to get game: %w", err)
		}
		if g.CreatorID != userID {
			return apperr.New(apperr.Forbidden, "only the creator can draw")
		}
		if g.Status != model.StatusRunning {
			return apperr.New(apperr.Conflict, "game is not running")
		}

		number, err := s.drawNumber(g.DrawnNumbers)
		if err != nil {
			if errors.Is(err, bingo.ErrExhausted) {
				return apperr.New(apperr.Conflict, "no numbers left to draw")
			}
			return err
		}
		g.DrawnNumbers = append(g.DrawnNumbers, number)
		now := time.Now()
		g.LastDrawnAt = &now

		gross := g.Price.Mul(decimal.NewFromInt(int64(g.SoldTickets)))
		commission, pool := bingo.PrizePool(gross, g.CommissionPercent)

		tickets, err := s.tickets.ListByGame(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("failed to list tickets: %w", err)
		}

		drawnSet := bingo.DrawnSet(g.DrawnNumbers)
		type award struct {
			ticket   *model.Ticket
			amount   decimal.Decimal
			category string
		}
		var awards []award
		for _, category := range []string{model.CategoryDiagonal, model.CategoryLine, model.CategoryBingo} {
			if g.CategoryPaid(category) {
				continue
			}
			var hits []*model.Ticket
			for _, t := range tickets {
				if bingo.Evaluate(t.Numbers, drawnSet).Has(category) {
					hits = append(hits, t)
				}
			}
			if len(hits) == 0 {
				continue
			}
			slice := bingo.CategorySlice(pool, s.policy.Scheme.Bps(category))
			perWinner := bingo.PerWinner(slice, len(hits))
			for _, t := range hits {
				awards = append(awards, award{ticket: t, amount: perWinner, category: category})
			}
			g.SetCategoryPaid(category)
		}

		finished := g.PaidBingo
		if finished {
			g.Status = model.StatusFinished
			g.FinishedAt = &now
		}

		// Persist the flags before any money moves: a category must
		// never pay twice, even if a credit below fails and the draw
		// is retried.
		if err = s.games.Update(ctx, g); err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		winners := make([]ws.WinnerPayload, 0, len(awards))
		for _, a := range awards {
			t := a.ticket
			err := s.locks.WithLock(s.walletKey(t.UserID), func() error {
				if _, err := s.wallets.AddBalance(ctx, t.UserID, a.amount); err != nil {
					return fmt.Errorf("failed to credit winner: %w", err)
				}
				t.Payout = t.Payout.Add(a.amount)
				if !t.HasWin(a.category) {
					t.Wins = append(t.Wins, a.category)
				}
				if err := s.tickets.Update(ctx, t); err != nil {
					return fmt.Errorf("failed to update ticket: %w", err)
				}
				if _, err := s.txs.Create(ctx, t.UserID, model.TxTypePrize, a.amount,
					fmt.Sprintf("bingo prize (%s)", a.category), t.ID); err != nil {
					log.Error().Err(err).Str("ticket_id", t.ID).Msg("Failed to record prize transaction")
				}
				return nil
			})
			if err != nil {
				return err
			}
			winners = append(winners, ws.WinnerPayload{
				TicketID: t.ID,
				UserID:   t.UserID,
				Amount:   a.amount.String(),
				Category: a.category,
			})
		}

		if finished {
			// Half the commission goes to the creator; the platform
			// keeps the other half.
			creatorShare := commission.Mul(decimal.New(5, -1))
			err := s.locks.WithLock(s.walletKey(g.CreatorID), func() error {
				if _, err := s.wallets.AddBalance(ctx, g.CreatorID, creatorShare); err != nil {
					return fmt.Errorf("failed to credit creator commission: %w", err)
				}
				if _, err := s.txs.Create(ctx, g.CreatorID, model.TxTypeCommission, creatorShare,
					"creator commission", g.ID); err != nil {
					log.Error().Err(err).Str("game_id", g.ID).Msg("Failed to record commission transaction")
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		s.events.BroadcastToGame(g.ID, ws.EventNumberDrawn, ws.NumberDrawnPayload{
			Number:       number,
			DrawnNumbers: g.DrawnNumbers,
			PaidDiagonal: g.PaidDiagonal,
			PaidLine:     g.PaidLine,
			PaidBingo:    g.PaidBingo,
		})
		for _, w := range winners {
			s.events.BroadcastToGame(g.ID, ws.EventWinner, w)
		}
		if finished {
			s.events.BroadcastToGame(g.ID, ws.EventGameFinished, ws.GameFinishedPayload{
				GameID: g.ID,
				Status: g.Status,
			})
			log.Info().Str("game_id", g.ID).Int("draws", len(g.DrawnNumbers)).Msg("Game finished")
		}

		result = &DrawResult{
			Number:       number,
			DrawnNumbers: g.DrawnNumbers,
			PaidDiagonal: g.PaidDiagonal,
			PaidLine:     g.PaidLine,
			PaidBingo:    g.PaidBingo,
			Winners:      winners,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
