package bingo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"bingo-platform/internal/model"
)

func gridNumbers(grid model.Grid) []int {
	var out []int
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if grid[i][j] != FreeCell {
				out = append(out, grid[i][j])
			}
		}
	}
	return out
}

func TestEvaluateDiagonal(t *testing.T) {
	grid, err := FromRows(validRows())
	require.NoError(t, err)

	// Main diagonal: (0,0) (1,1) (2,2 free) (3,3) (4,4).
	drawn := DrawnSet([]int{grid[0][0], grid[1][1], grid[3][3], grid[4][4]})
	p := Evaluate(grid, drawn)
	assert.True(t, p.Diagonal)
	assert.False(t, p.Line)
	assert.False(t, p.FullCard)

	// One cell short.
	partial := DrawnSet([]int{grid[0][0], grid[1][1], grid[3][3]})
	assert.False(t, Evaluate(grid, partial).Diagonal)
}

func TestEvaluateAntiDiagonal(t *testing.T) {
	grid, err := FromRows(validRows())
	require.NoError(t, err)

	drawn := DrawnSet([]int{grid[0][4], grid[1][3], grid[3][1], grid[4][0]})
	assert.True(t, Evaluate(grid, drawn).Diagonal)
}

func TestEvaluateRowAndColumn(t *testing.T) {
	grid, err := FromRows(validRows())
	require.NoError(t, err)

	row0 := DrawnSet([]int{grid[0][0], grid[0][1], grid[0][2], grid[0][3], grid[0][4]})
	p := Evaluate(grid, row0)
	assert.True(t, p.Line)
	assert.False(t, p.Diagonal)

	// The N column crosses the free center: four draws complete it.
	colN := DrawnSet([]int{grid[0][2], grid[1][2], grid[3][2], grid[4][2]})
	assert.True(t, Evaluate(grid, colN).Line)
}

func TestEvaluateFullCard(t *testing.T) {
	grid, err := FromRows(validRows())
	require.NoError(t, err)

	all := DrawnSet(gridNumbers(grid))
	p := Evaluate(grid, all)
	assert.True(t, p.Diagonal)
	assert.True(t, p.Line)
	assert.True(t, p.FullCard)

	// Nothing drawn: only the free cell is covered.
	empty := Evaluate(grid, map[int]bool{})
	assert.False(t, empty.Diagonal)
	assert.False(t, empty.Line)
	assert.False(t, empty.FullCard)
}

// Once a category holds for a drawn set it keeps holding for every
// superset of that set.
func TestEvaluateMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		grid := Generate(rand.New(rand.NewSource(seed)))

		nums := rapid.SliceOfDistinct(rapid.IntRange(1, 75), rapid.ID[int]).Draw(t, "drawn")
		drawn := DrawnSet(nums)
		before := Evaluate(grid, drawn)

		extra := rapid.SliceOfDistinct(rapid.IntRange(1, 75), rapid.ID[int]).Draw(t, "extra")
		super := DrawnSet(append(append([]int{}, nums...), extra...))
		after := Evaluate(grid, super)

		if before.Diagonal {
			require.True(t, after.Diagonal)
		}
		if before.Line {
			require.True(t, after.Line)
		}
		if before.FullCard {
			require.True(t, after.FullCard)
		}

		// Full card implies a diagonal and a line.
		if after.FullCard {
			require.True(t, after.Diagonal)
			require.True(t, after.Line)
		}
	})
}

func TestPatternsHas(t *testing.T) {
	p := Patterns{Diagonal: true, FullCard: true}
	assert.True(t, p.Has(model.CategoryDiagonal))
	assert.False(t, p.Has(model.CategoryLine))
	assert.True(t, p.Has(model.CategoryBingo))
	assert.False(t, p.Has("nonsense"))
}