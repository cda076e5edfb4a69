package selection

import (
	"math/rand"
	"sync"
)

// seededRNG wraps a *rand.Rand with a mutex. Suggest builds a fresh one from
// Policy.RNGSeed on every call, so identical inputs draw the same sequence.
type seededRNG struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newSeededRNG(seed int64) *seededRNG {
	return &seededRNG{rng: rand.New(rand.NewSource(seed))} // #nosec G404 - tie-break substitution only, not security-sensitive
}

// pick returns a random index in [0, n) under the seed. It substitutes for
// the lexicographic tiebreak when RNGSeed is set and the candidate set still
// has more than one member after every strict rule has been applied, and it
// chooses the concept in the "random" fallback.
func (s *seededRNG) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}
