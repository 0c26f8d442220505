package random

import (
	"hash/fnv"
	"math/rand"
	"sync"
)

// Source is a seeded stream of draws. It is safe for concurrent use, though
// draws are only reproducible when taken from a single goroutine.
type Source struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
}

func New(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// ForScenario derives a source from a base seed and a scenario id, so each
// scenario reproduces independently of what was generated before it.
func ForScenario(seed int64, scenarioID string) *Source {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scenarioID))
	return New(seed ^ int64(h.Sum64()))
}

func (s *Source) Seed() int64 { return s.seed }

// Intn returns a value in [0, n)
func (s *Source) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// IntRange returns a value in [lo, hi]
func (s *Source) IntRange(lo, hi int) int {
	return lo + s.Intn(hi-lo+1)
}

// Float64 returns a value in [0, 1)
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Uniform returns a value in [lo, hi)
func (s *Source) Uniform(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// NormFloat64 returns a standard normal draw
func (s *Source) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.NormFloat64()
}

func (s *Source) Bool() bool {
	return s.Intn(2) == 1
}

// Read fills p from the stream; used to draw identifiers
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Read(p)
}

// Pick returns a uniformly chosen element of items
func Pick[T any](r Intner, items []T) T {
	return items[r.Intn(len(items))]
}
