package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bingo-platform/internal/apperr"
	"bingo-platform/internal/model"
	"bingo-platform/internal/pkg/lock"
	"bingo-platform/internal/repository"
)

// WalletService handles balance queries, deposits and withdrawals.
type WalletService struct {
	wallets WalletStore
	txs     TransactionStore
	locks   *lock.KeyLock
}

// NewWalletService creates a WalletService instance.
func NewWalletService(wallets WalletStore, txs TransactionStore, locks *lock.KeyLock) *WalletService {
	return &WalletService{wallets: wallets, txs: txs, locks: locks}
}

// GetBalance returns the user's wallet.
func (s *WalletService) GetBalance(ctx context.Context, userID string) (*model.Wallet, error) {
	w, err := s.wallets.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			return nil, apperr.New(apperr.NotFound, "wallet not found")
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

// Deposit credits the user's wallet.
func (s *WalletService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperr.New(apperr.InvalidInput, "deposit amount must be positive")
	}

	var wallet *model.Wallet
	err := s.locks.WithLock("wallet:"+userID, func() error {
		w, err := s.wallets.AddBalance(ctx, userID, amount)
		if err != nil {
			if errors.Is(err, repository.ErrWalletNotFound) {
				return apperr.New(apperr.NotFound, "wallet not found")
			}
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		if _, err := s.txs.Create(ctx, userID, model.TxTypeDeposit, amount, "deposit", ""); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to record deposit transaction")
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("amount", amount.String()).Msg("Deposit")
	return wallet, nil
}

// Withdraw debits the user's wallet. Fails when the balance would go
// negative.
func (s *WalletService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*model.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperr.New(apperr.InvalidInput, "withdrawal amount must be positive")
	}

	var wallet *model.Wallet
	err := s.locks.WithLock("wallet:"+userID, func() error {
		w, err := s.wallets.GetByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrWalletNotFound) {
				return apperr.New(apperr.NotFound, "wallet not found")
			}
			return fmt.Errorf("failed to get wallet: %w", err)
		}
		if w.Balance.LessThan(amount) {
			return apperr.New(apperr.InsufficientFunds, "insufficient balance")
		}

		if wallet, err = s.wallets.AddBalance(ctx, userID, amount.Neg()); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		if _, err := s.txs.Create(ctx, userID, model.TxTypeWithdraw, amount.Neg(), "withdrawal", ""); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to record withdrawal transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID).Str("amount", amount.String()).Msg("Withdrawal")
	return wallet, nil
}

// Transactions returns the user's most recent wallet movements.
func (s *WalletService) Transactions(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.txs.ListByUser(ctx, userID, limit)
}