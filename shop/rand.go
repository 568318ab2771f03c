package shop

import (
	"math/rand/v2"
	"sync"
)

// Rand picks among eligible colors. Tests pin it with a fixed sequence.
type Rand interface {
	// IntN returns a value in [0, n). n > 0.
	IntN(n int) int
}

// NewRand returns a goroutine-safe PCG source seeded with seed.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// pick returns one element of colors using rng.
func pick(rng Rand, colors []Color) Color {
	if len(colors) == 1 {
		return colors[0]
	}
	return colors[rng.IntN(len(colors))]
}
