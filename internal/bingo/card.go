// Package bingo implements the core bingo mechanics: card generation,
// win-pattern evaluation, number draws and prize math. Everything in
// this package is a pure function of its inputs; game state lives in
// the service layer.
package bingo

import (
	"errors"
	"math/rand"

	"bingo-platform/internal/model"
)

// FreeCell is the sentinel stored in the center of every card.
const FreeCell = 0

// columnRanges holds the inclusive numeric range of each B/I/N/G/O column.
var columnRanges = [5][2]int{
	{1, 15},  // B
	{16, 30}, // I
	{31, 45}, // N
	{46, 60}, // G
	{61, 75}, // O
}

var (
	ErrBadShape  = errors.New("card must be a 5x5 grid")
	ErrBadCenter = errors.New("center cell must be the free space")
	ErrBadRange  = errors.New("cell value outside its column range")
	ErrDuplicate = errors.New("duplicate value within a column")
)

// Generate produces a valid 5x5 card: each column holds 5 distinct
// numbers drawn uniformly without replacement from its range, and the
// center cell is the free space.
func Generate(rng *rand.Rand) model.Grid {
	var grid model.Grid
	for col, r := range columnRanges {
		span := r[1] - r[0] + 1
		pool := rng.Perm(span)
		for row := 0; row < 5; row++ {
			grid[row][col] = r[0] + pool[row]
		}
	}
	grid[2][2] = FreeCell
	return grid
}

// FromRows converts a row-major slice (as received on the wire) into a
// Grid, rejecting anything that is not exactly 5x5.
func FromRows(rows [][]int) (model.Grid, error) {
	var grid model.Grid
	if len(rows) != 5 {
		return grid, ErrBadShape
	}
	for i, row := range rows {
		if len(row) != 5 {
			return grid, ErrBadShape
		}
		copy(grid[i][:], row)
	}
	return grid, nil
}

// Validate checks a card independently of how it was produced: center
// is free, every other cell lies in its column's range, and no column
// repeats a value.
func Validate(grid model.Grid) error {
	if grid[2][2] != FreeCell {
		return ErrBadCenter
	}
	for col, r := range columnRanges {
		seen := make(map[int]bool, 5)
		for row := 0; row < 5; row++ {
			if row == 2 && col == 2 {
				continue
			}
			v := grid[row][col]
			if v < r[0] || v > r[1] {
				return ErrBadRange
			}
			if seen[v] {
				return ErrDuplicate
			}
			seen[v] = true
		}
	}
	return nil
}
