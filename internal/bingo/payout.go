package bingo

import (
	"github.com/shopspring/decimal"

	"bingo-platform/internal/model"
)

// Scheme partitions the net prize pool across categories, in basis
// points. The three shares must sum to exactly 10000 so that the
// category slices add up to the whole pool.
type Scheme struct {
	DiagonalBps int64
	LineBps     int64
	BingoBps    int64
}

// DefaultScheme is 22.22% / 22.22% / 55.56% of the net pool, which at
// the default 10% commission equals 20/20/50 of gross sales.
func DefaultScheme() Scheme {
	return Scheme{DiagonalBps: 2222, LineBps: 2222, BingoBps: 5556}
}

// Valid reports whether the scheme covers the pool exactly.
func (s Scheme) Valid() bool {
	return s.DiagonalBps > 0 && s.LineBps > 0 && s.BingoBps > 0 &&
		s.DiagonalBps+s.LineBps+s.BingoBps == 10000
}

// Bps returns the share of a named category.
func (s Scheme) Bps(category string) int64 {
	switch category {
	case model.CategoryDiagonal:
		return s.DiagonalBps
	case model.CategoryLine:
		return s.LineBps
	case model.CategoryBingo:
		return s.BingoBps
	}
	return 0
}

// PrizePool computes commission and net pool from gross ticket sales.
// commission + pool == gross holds exactly.
func PrizePool(gross, commissionPercent decimal.Decimal) (commission, pool decimal.Decimal) {
	commission = gross.Mul(commissionPercent.Shift(-2))
	pool = gross.Sub(commission)
	return commission, pool
}

// CategorySlice is the portion of the net pool assigned to one
// category. Computed as a pure multiplication so the three slices of a
// valid scheme sum to exactly the pool.
func CategorySlice(pool decimal.Decimal, bps int64) decimal.Decimal {
	return pool.Mul(decimal.New(bps, -4))
}

// PerWinner splits a category slice evenly among simultaneous winners.
// The caller guarantees winners >= 1.
func PerWinner(slice decimal.Decimal, winners int) decimal.Decimal {
	return slice.DivRound(decimal.NewFromInt(int64(winners)), 4)
}
