package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
	"bingo-platform/internal/repository"
)

// memStore is a mutex-protected in-memory backend shared by the fake
// store implementations below. Every read hands out a copy so tests
// observe the same re-read semantics the real repositories have.
type memStore struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*model.User
	emails  map[string]string
	wallets map[string]*model.Wallet
	games   map[string]*model.Game
	tickets map[string]*model.Ticket
	txs     []*model.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*model.User),
		emails:  make(map[string]string),
		wallets: make(map[string]*model.Wallet),
		games:   make(map[string]*model.Game),
		tickets: make(map[string]*model.Ticket),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func cloneGame(g *model.Game) *model.Game {
	c := *g
	c.DrawnNumbers = append([]int(nil), g.DrawnNumbers...)
	return &c
}

func cloneTicket(t *model.Ticket) *model.Ticket {
	c := *t
	c.Wins = append([]string(nil), t.Wins...)
	return &c
}

type fakeUsers struct{ m *memStore }

func (f *fakeUsers) Create(_ context.Context, email, hashedPassword, alias string) (*model.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	u := &model.User{
		ID:             f.m.nextID("user"),
		Email:          email,
		HashedPassword: hashedPassword,
		Alias:          alias,
		IsVerified:     true,
		CreatedAt:      time.Now(),
	}
	f.m.users[u.ID] = u
	f.m.emails[email] = u.ID
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	u, ok := f.m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	id, ok := f.m.emails[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *f.m.users[id]
	return &c, nil
}

type fakeWallets struct{ m *memStore }

func (f *fakeWallets) Create(_ context.Context, userID string) (*model.Wallet, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	w := &model.Wallet{ID: f.m.nextID("wallet"), UserID: userID, Balance: decimal.Zero}
	f.m.wallets[userID] = w
	c := *w
	return &c, nil
}

func (f *fakeWallets) GetByUser(_ context.Context, userID string) (*model.Wallet, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	w, ok := f.m.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	c := *w
	return &c, nil
}

func (f *fakeWallets) AddBalance(_ context.Context, userID string, delta decimal.Decimal) (*model.Wallet, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	w, ok := f.m.wallets[userID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(delta)
	c := *w
	return &c, nil
}

// fakeGames optionally fails the next Update once, to exercise the
// compensation paths.
type fakeGames struct {
	m         *memStore
	updateErr error
}

func (f *fakeGames) Create(_ context.Context, g *model.Game) (*model.Game, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	c := cloneGame(g)
	c.ID = f.m.nextID("game")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.DrawnNumbers == nil {
		c.DrawnNumbers = []int{}
	}
	f.m.games[c.ID] = c
	return cloneGame(c), nil
}

func (f *fakeGames) Get(_ context.Context, id string) (*model.Game, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	g, ok := f.m.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	return cloneGame(g), nil
}

func (f *fakeGames) Update(_ context.Context, g *model.Game) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.updateErr != nil {
		err := f.updateErr
		f.updateErr = nil
		return err
	}
	if _, ok := f.m.games[g.ID]; !ok {
		return repository.ErrGameNotFound
	}
	f.m.games[g.ID] = cloneGame(g)
	return nil
}

func (f *fakeGames) ListByStatus(_ context.Context, status string) ([]*model.Game, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*model.Game
	for _, g := range f.m.games {
		if g.Status == status {
			out = append(out, cloneGame(g))
		}
	}
	return out, nil
}

func (f *fakeGames) ActiveByCreator(_ context.Context, creatorID string) (*model.Game, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	for _, g := range f.m.games {
		if g.CreatorID != creatorID {
			continue
		}
		for _, s := range model.ActiveStatuses() {
			if g.Status == s {
				return cloneGame(g), nil
			}
		}
	}
	return nil, repository.ErrGameNotFound
}

type fakeTickets struct{ m *memStore }

func (f *fakeTickets) Create(_ context.Context, gameID, userID string, grid model.Grid) (*model.Ticket, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	t := &model.Ticket{
		ID:      f.m.nextID("ticket"),
		GameID:  gameID,
		UserID:  userID,
		Numbers: grid,
		Payout:  decimal.Zero,
		Wins:    []string{},
	}
	f.m.tickets[t.ID] = t
	return cloneTicket(t), nil
}

func (f *fakeTickets) Delete(_ context.Context, id string) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.tickets[id]; !ok {
		return repository.ErrTicketNotFound
	}
	delete(f.m.tickets, id)
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *model.Ticket) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.tickets[t.ID]; !ok {
		return repository.ErrTicketNotFound
	}
	f.m.tickets[t.ID] = cloneTicket(t)
	return nil
}

func (f *fakeTickets) ListByGame(_ context.Context, gameID string) ([]*model.Ticket, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*model.Ticket
	for _, t := range f.m.tickets {
		if t.GameID == gameID {
			out = append(out, cloneTicket(t))
		}
	}
	return out, nil
}

func (f *fakeTickets) ListByUser(_ context.Context, userID string) ([]*model.Ticket, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*model.Ticket
	for _, t := range f.m.tickets {
		if t.UserID == userID {
			out = append(out, cloneTicket(t))
		}
	}
	return out, nil
}

func (f *fakeTickets) CountByGameAndUser(_ context.Context, gameID, userID string) (int, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n := 0
	for _, t := range f.m.tickets {
		if t.GameID == gameID && t.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeTxs struct{ m *memStore }

func (f *fakeTxs) Create(_ context.Context, userID, txType string, amount decimal.Decimal, description, referenceID string) (*model.Transaction, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	tx := &model.Transaction{
		ID:          f.m.nextID("tx"),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}
	f.m.txs = append(f.m.txs, tx)
	c := *tx
	return &c, nil
}

func (f *fakeTxs) ListByUser(_ context.Context, userID string, limit int) ([]*model.Transaction, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*model.Transaction
	for i := len(f.m.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.m.txs[i].UserID == userID {
			c := *f.m.txs[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeTxs) byType(userID, txType string) []*model.Transaction {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range f.m.txs {
		if tx.UserID == userID && tx.Type == txType {
			c := *tx
			out = append(out, &c)
		}
	}
	return out
}

// fakeBroadcaster records every event so tests can assert on the
// emitted sequence.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	GameID  string
	Event   string
	Payload json.RawMessage
}

func (f *fakeBroadcaster) BroadcastToGame(gameID, event string, payload any) {
	b, _ := json.Marshal(payload)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{GameID: gameID, Event: event, Payload: b})
}

func (f *fakeBroadcaster) byEvent(event string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}