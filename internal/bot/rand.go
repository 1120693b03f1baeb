package bot

import (
	"math/rand/v2"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

// newRng returns a deterministic source for seed, or a randomly seeded one
// when seed is 0. Each episode owns its source so concurrent matches never
// share generator state.
func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		return allocation.NewSeededSource(rand.Uint64())
	}
	return allocation.NewSeededSource(uint64(seed))
}

// splitRng derives an independent source from rng, used to give the engine
// and the strategy separate streams from one episode seed.
func splitRng(rng *rand.Rand) *rand.Rand {
	return allocation.NewSeededSource(rng.Uint64())
}
