package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"bingo-platform/internal/model"
	"bingo-platform/internal/repository"
	"bingo-platform/internal/ws"
)

// Housekeeper periodically sweeps OPEN games: it autostarts games
// past their threshold delay, stamps the reached-minimum time, and
// cancels games that expired or sat unstarted past the grace window.
type Housekeeper struct {
	svc        *GameService
	interval   time.Duration
	openTTL    time.Duration
	startGrace time.Duration
}

// NewHousekeeper creates a Housekeeper instance.
func NewHousekeeper(svc *GameService, interval, openTTL, startGrace time.Duration) *Housekeeper {
	return &Housekeeper{
		svc:        svc,
		interval:   interval,
		openTTL:    openTTL,
		startGrace: startGrace,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (h *Housekeeper) Run(ctx context.Context) {
	log.Info().
		Dur("interval", h.interval).
		Dur("open_ttl", h.openTTL).
		Dur("start_grace", h.startGrace).
		Msg("Housekeeper started")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Housekeeper stopped")
			return
		case <-ticker.C:
			h.Sweep(ctx)
		}
	}
}

// Sweep processes every OPEN game once. A failure on one game is
// logged and does not stop the sweep.
func (h *Housekeeper) Sweep(ctx context.Context) {
	games, err := h.svc.games.ListByStatus(ctx, model.StatusOpen)
	if err != nil {
		log.Error().Err(err).Msg("Housekeeper failed to list open games")
		return
	}
	for _, g := range games {
		if err := h.sweepGame(ctx, g.ID); err != nil {
			log.Error().Err(err).Str("game_id", g.ID).Msg("Housekeeper sweep failed for game")
		}
	}
}

// sweepGame re-reads one game under its lock and applies whichever
// timer rule fires first. The fresh read is required: a purchase or
// start may have run between the listing and the lock acquisition.
func (h *Housekeeper) sweepGame(ctx context.Context, gameID string) error {
	s := h.svc
	return s.locks.WithLock(s.gameKey(gameID), func() error {
		g, err := s.games.Get(ctx, gameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameNotFound) {
				return nil
			}
			return err
		}
		if g.Status != model.StatusOpen {
			return nil
		}

		now := time.Now()
		changed := false

		if g.AutostartEnabled && g.AutostartThreshold > 0 && g.SoldTickets >= g.AutostartThreshold {
			if g.ReachedThresholdAt == nil {
				g.ReachedThresholdAt = &now
				changed = true
			} else if now.Sub(*g.ReachedThresholdAt) >= time.Duration(g.AutostartDelayMinutes)*time.Minute {
				return h.autostart(ctx, g)
			}
		}

		if g.SoldTickets >= g.MinTickets && g.ReachedMinAt == nil {
			g.ReachedMinAt = &now
			changed = true
		}

		if now.Sub(g.CreatedAt) > h.openTTL && g.SoldTickets < g.MinTickets {
			log.Info().Str("game_id", g.ID).Msg("Cancelling expired game")
			return s.cancelLocked(ctx, g)
		}

		if g.ReachedMinAt != nil && !g.AutostartEnabled && now.Sub(*g.ReachedMinAt) > h.startGrace {
			log.Info().Str("game_id", g.ID).Msg("Cancelling unstarted game past grace window")
			return s.cancelLocked(ctx, g)
		}

		if changed {
			return s.games.Update(ctx, g)
		}
		return nil
	})
}

func (h *Housekeeper) autostart(ctx context.Context, g *model.Game) error {
	s := h.svc
	g.Status = model.StatusRunning
	if err := s.games.Update(ctx, g); err != nil {
		return err
	}
	s.events.BroadcastToGame(g.ID, ws.EventGameStarted, ws.GameStartedPayload{
		GameID: g.ID,
		Status: g.Status,
	})
	log.Info().Str("game_id", g.ID).Int("sold", g.SoldTickets).Msg("Game autostarted")
	return nil
}