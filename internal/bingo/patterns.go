package bingo

import "bingo-platform/internal/model"

// Patterns reports which win categories a card satisfies against a
// drawn set. Evaluation is monotonic: a true field stays true for any
// superset of drawn numbers.
type Patterns struct {
	Diagonal bool
	Line     bool
	FullCard bool
}

// Has returns the flag for a named prize category.
func (p Patterns) Has(category string) bool {
	switch category {
	case model.CategoryDiagonal:
		return p.Diagonal
	case model.CategoryLine:
		return p.Line
	case model.CategoryBingo:
		return p.FullCard
	}
	return false
}

// covered reports whether a cell counts as marked: its value was drawn
// or it is the free center.
func covered(v int, drawn map[int]bool) bool {
	return v == FreeCell || drawn[v]
}

// Evaluate checks all win categories for a card against the set of
// drawn numbers. Inputs are not mutated.
func Evaluate(grid model.Grid, drawn map[int]bool) Patterns {
	var p Patterns

	diag1, diag2 := true, true
	for i := 0; i < 5; i++ {
		diag1 = diag1 && covered(grid[i][i], drawn)
		diag2 = diag2 && covered(grid[i][4-i], drawn)
	}
	p.Diagonal = diag1 || diag2

	for i := 0; i < 5 && !p.Line; i++ {
		row, col := true, true
		for j := 0; j < 5; j++ {
			row = row && covered(grid[i][j], drawn)
			col = col && covered(grid[j][i], drawn)
		}
		p.Line = row || col
	}

	p.FullCard = true
	for i := 0; i < 5 && p.FullCard; i++ {
		for j := 0; j < 5; j++ {
			if !covered(grid[i][j], drawn) {
				p.FullCard = false
				break
			}
		}
	}

	return p
}

// DrawnSet builds a lookup set from an ordered draw sequence.
func DrawnSet(drawn []int) map[int]bool {
	set := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		set[n] = true
	}
	return set
}
