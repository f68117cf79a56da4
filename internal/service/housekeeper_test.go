package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bingo-platform/internal/model"
)

func newHousekeeperEnv(t *testing.T) (*testEnv, *Housekeeper) {
	t.Helper()
	e := newTestEnv(t, defaultPolicy())
	h := NewHousekeeper(e.svc, time.Minute, 24*time.Hour, 2*time.Hour)
	return e, h
}

func TestSweepCancelsExpiredGame(t *testing.T) {
	ctx := context.Background()
	e, h := newHousekeeperEnv(t)
	creator := e.addUser(t, "creator@example.com", decimal.Zero)
	player := e.addUser(t, "player@example.com", decimal.NewFromInt(100))

	g, err := e.svc.Create(ctx, creator.ID, CreateGameInput{
		Price: decimal.NewFromInt(10), MinTickets: 3,
	})
	require.NoError(t, err)
	_, err = e.svc.Purchase(ctx, g.ID, player.ID, nil)
	require.NoError(t, err)

	// Not yet expired: the sweep leaves it alone.
	h.Sweep(ctx)
	got, err := e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)

	e.mutateGame(t, g.ID, func(g *model.Game) {
		g.CreatedAt = time.Now().Add(-25 * time.Hour)
	})

	h.Sweep(ctx)
	got, err = e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.True(t, e.balance(t, player.ID).Equal(decimal.NewFromInt(100)))
	assert.Len(t, e.txs.byType(player.ID, model.TxTypeRefund), 1)

	// A second sweep must not refund again.
	h.Sweep(ctx)
	assert.Len(t, e.txs.byType(player.ID, model.TxTypeRefund), 1)
	assert.True(t, e.balance(t, player.ID).Equal(decimal.NewFromInt(100)))
}

func TestSweepStampsReachedMin(t *testing.T) {
	ctx := context.Background()
	e, h := newHousekeeperEnv(t)
	creator := e.addUser(t, "creator@example.com", decimal.Zero)
	player := e.addUser(t, "player@example.com", decimal.NewFromInt(100))

	g, err := e.svc.Create(ctx, creator.ID, CreateGameInput{
		Price: decimal.NewFromInt(10), MinTickets: 1,
	})
	require.NoError(t, err)
	_, err = e.svc.Purchase(ctx, g.ID, player.ID, nil)
	require.NoError(t, err)

	// Purchase already stamps it; clear the stamp to simulate a game
	// written before the stamping logic existed.
	e.mutateGame(t, g.ID, func(g *model.Game) { g.ReachedMinAt = nil })

	h.Sweep(ctx)
	got, err := e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.NotNil(t, got.ReachedMinAt)
}

func TestSweepCancelsUnstartedGamePastGrace(t *testing.T) {
	ctx := context.Background()
	e, h := newHousekeeperEnv(t)
	creator := e.addUser(t, "creator@example.com", decimal.Zero)
	player := e.addUser(t, "player@example.com", decimal.NewFromInt(100))

	g, err := e.svc.Create(ctx, creator.ID, CreateGameInput{
		Price: decimal.NewFromInt(10), MinTickets: 1,
	})
	require.NoError(t, err)
	_, err = e.svc.Purchase(ctx, g.ID, player.ID, nil)
	require.NoError(t, err)

	// Within the grace window: untouched.
	h.Sweep(ctx)
	got, err := e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)

	stale := time.Now().Add(-3 * time.Hour)
	e.mutateGame(t, g.ID, func(g *model.Game) { g.ReachedMinAt = &stale })

	h.Sweep(ctx)
	got, err = e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.True(t, e.balance(t, player.ID).Equal(decimal.NewFromInt(100)))
}

func TestSweepAutostartsAfterDelay(t *testing.T) {
	ctx := context.Background()
	e, h := newHousekeeperEnv(t)
	creator := e.addUser(t, "creator@example.com", decimal.Zero)
	p1 := e.addUser(t, "p1@example.com", decimal.NewFromInt(100))
	p2 := e.addUser(t, "p2@example.com", decimal.NewFromInt(100))

	g, err := e.svc.Create(ctx, creator.ID, CreateGameInput{
		Price:                 decimal.NewFromInt(10),
		MinTickets:            2,
		AutostartEnabled:      true,
		AutostartThreshold:    2,
		AutostartDelayMinutes: 5,
	})
	require.NoError(t, err)
	_, err = e.svc.Purchase(ctx, g.ID, p1.ID, nil)
	require.NoError(t, err)
	_, err = e.svc.Purchase(ctx, g.ID, p2.ID, nil)
	require.NoError(t, err)

	// First sweep stamps the threshold time, nothing starts yet.
	h.Sweep(ctx)
	got, err := e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)
	require.NotNil(t, got.ReachedThresholdAt)

	// Second sweep inside the delay still waits.
	h.Sweep(ctx)
	got, err = e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)

	stale := time.Now().Add(-6 * time.Minute)
	e.mutateGame(t, g.ID, func(g *model.Game) { g.ReachedThresholdAt = &stale })

	h.Sweep(ctx)
	got, err = e.svc.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)
	assert.NotEmpty(t, e.events.byEvent("game_started"))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := newTestEnv(t, defaultPolicy())
	h := NewHousekeeper(e.svc, 10*time.Millisecond, 24*time.Hour, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("housekeeper did not stop on context cancellation")
	}
}