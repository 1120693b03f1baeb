package allocation

import "math/rand/v2"

// Source supplies the engine's randomness: the exploration draw, the
// exploratory action, and the greed/envy draws. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// globalSource delegates to the process-wide math/rand/v2 generator.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// NewSeededSource returns a PCG-backed source for reproducible games.
func NewSeededSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
