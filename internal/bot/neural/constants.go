package neural

import "github.com/freeeve/allocation-game/pkg/allocation"

// ObservationSize is the input width: both last contributions (scaled)
// plus the agent's kindness.
const ObservationSize = len(allocation.Observation{})

// ActionSize is the number of contribution levels the policy chooses from.
const ActionSize = allocation.NumLevels

// Training defaults.
const (
	DefaultHidden       = 5
	DefaultLearningRate = 1e-2
	DefaultGamma        = 0.99
	DefaultMaxSteps     = 1000 // per-episode cap on top of the engine's own
	DefaultMaxPeriods   = 200  // game length used for training episodes
	ScoreWindow         = 100  // episodes in the moving average
)

// Adam hyperparameters.
const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)
