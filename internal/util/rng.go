package util

import (
	"math/rand"
	"time"
)

// Source is the randomness every scheduler and script draws from.
// *rand.Rand satisfies it; tests substitute fixed sequences.
type Source interface {
	Int63n(n int64) int64
	Intn(n int) int
	Float64() float64
}

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)
	return rand.New(src)
}

// Between returns a uniformly distributed duration in [min, max].
// min > max collapses to min.
func Between(src Source, min, max time.Duration) time.Duration {
	if max <= min || src == nil {
		return min
	}
	return min + time.Duration(src.Int63n(int64(max-min)+1))
}

// Chance reports true with probability pct/100.
func Chance(src Source, pct float64) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 || src == nil {
		return pct >= 100
	}
	return src.Float64()*100 < pct
}

// Pick returns a random index in [0, n), or -1 when n is not positive.
func Pick(src Source, n int) int {
	if n <= 0 {
		return -1
	}
	if src == nil {
		return 0
	}
	return src.Intn(n)
}
