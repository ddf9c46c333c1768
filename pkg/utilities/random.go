package utilities

import (
	"math/rand/v2"
	"sync"
)

// SeededRandom is a uniform float source that replays the same sequence for
// the same seed. Safe for concurrent use.
type SeededRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform returns a value in [low, high). It returns low when the range is empty.
func (s *SeededRandom) Uniform(low, high float64) float64 {
	if high <= low {
		return low
	}
	s.mu.Lock()
	f := s.r.Float64()
	s.mu.Unlock()
	return low + f*(high-low)
}
