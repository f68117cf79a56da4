package bingo

import (
	"errors"
	"math/rand"
)

// MaxNumbers is the size of the bingo number space (1..75).
const MaxNumbers = 75

// ErrExhausted is returned once all 75 numbers have been drawn.
var ErrExhausted = errors.New("no numbers left to draw")

// DrawNext selects the next number uniformly at random from the
// complement of the already-drawn sequence. The caller must hold the
// game's lock: the drawn sequence it observes has to be the same one
// the subsequent payout step runs against.
func DrawNext(drawn []int, rng *rand.Rand) (int, error) {
	if len(drawn) >= MaxNumbers {
		return 0, ErrExhausted
	}
	set := DrawnSet(drawn)
	remaining := make([]int, 0, MaxNumbers-len(drawn))
	for n := 1; n <= MaxNumbers; n++ {
		if !set[n] {
			remaining = append(remaining, n)
		}
	}
	return remaining[rng.Intn(len(remaining))], nil
}
