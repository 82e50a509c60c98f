package respond

import (
	"math/rand/v2"
	"sync"
)

// Selector chooses among equally valid templates.
type Selector interface {
	// Pick returns one element of options, or "" when options is empty.
	Pick(options []string) string

	// Chance reports true with probability p.
	Chance(p float64) bool
}

// RandSelector is a Selector backed by a seeded PCG source. It is safe for
// concurrent use.
type RandSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSelector returns a selector seeded with seed. The same seed yields
// the same sequence of choices.
func NewRandSelector(seed uint64) *RandSelector {
	return &RandSelector{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandSelector) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return options[s.rng.IntN(len(options))]
}

func (s *RandSelector) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}

// FirstSelector always picks the first option and never passes a Chance
// roll. Useful for exact-output tests.
type FirstSelector struct{}

func (FirstSelector) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[0]
}

func (FirstSelector) Chance(float64) bool { return false }
