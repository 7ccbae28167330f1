// Package slots produces mock availability for a restaurant evening.
package slots

import (
	"math/rand/v2"
	"slices"
	"sync"
)

// Candidates is the fixed evening grid, 17:00 to 21:00 in 30-minute steps.
var Candidates = []string{"17:00", "17:30", "18:00", "18:30", "19:00", "19:30", "20:00", "20:30", "21:00"}

const (
	minAvailable = 4
	maxAvailable = 7
)

// Generator draws sorted availability subsets from an injected random source.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator over src. Pass a seeded source for reproducible output.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewSeeded returns a Generator seeded with seed. A zero seed draws a random one.
func NewSeeded(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Available returns between 4 and 7 distinct candidates in ascending order.
func (g *Generator) Available() []string {
	g.mu.Lock()
	k := minAvailable + g.rng.IntN(maxAvailable-minAvailable+1)
	perm := g.rng.Perm(len(Candidates))
	g.mu.Unlock()

	picked := perm[:k]
	slices.Sort(picked)
	out := make([]string, k)
	for i, idx := range picked {
		out[i] = Candidates[idx]
	}
	return out
}
