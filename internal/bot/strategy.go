package bot

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

// Observation is what a bot sees before choosing: the previous period from
// its own seat. The zero value means no period has been played yet.
type Observation struct {
	Period      int
	AgentLevel  int
	OwnLevel    int
	AgentPayoff float64
	OwnPayoff   float64
	Features    allocation.Observation
}

// observe converts an engine outcome into the bot's view of it.
func observe(out allocation.Outcome) Observation {
	own, _ := allocation.LevelOf(out.OtherContribution())
	return Observation{
		Period:      out.Period,
		AgentLevel:  out.AgentLevel,
		OwnLevel:    own,
		AgentPayoff: out.OwnPayoff,
		OwnPayoff:   out.OtherPayoff,
		Features:    out.Observation(),
	}
}

// First reports whether no period has been played yet.
func (o Observation) First() bool { return o.Period == 0 }

// Strategy picks the other player's level each period.
type Strategy interface {
	Name() string
	Choose(obs Observation) int
}

// StrategyForName resolves a strategy name:
//
//	fixed:<level>  always the same level (0..5)
//	random         uniform over levels
//	titfortat      copies the agent's last level
//	threshold      tops the agent's last contribution up to the bonus
//	onnx           exported policy network, random when the model is missing
func StrategyForName(name string, rng *rand.Rand) (Strategy, error) {
	switch {
	case name == "random":
		return &RandomStrategy{rng: rng}, nil
	case name == "titfortat":
		return &TitForTatStrategy{Opening: 2}, nil
	case name == "threshold":
		return ThresholdStrategy{}, nil
	case name == "onnx":
		return newOnnxOrFallback(rng), nil
	case strings.HasPrefix(name, "fixed:"):
		level, err := strconv.Atoi(strings.TrimPrefix(name, "fixed:"))
		if err != nil {
			return nil, fmt.Errorf("parse fixed level %q: %w", name, err)
		}
		if err := allocation.ValidateLevel(level); err != nil {
			return nil, err
		}
		return FixedStrategy{Level: level}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// --- FixedStrategy ---

// FixedStrategy contributes at the same level every period.
type FixedStrategy struct {
	Level int
}

func (s FixedStrategy) Name() string { return fmt.Sprintf("fixed:%d", s.Level) }

func (s FixedStrategy) Choose(Observation) int { return s.Level }

// --- RandomStrategy ---

// RandomStrategy picks a level uniformly at random.
type RandomStrategy struct {
	rng *rand.Rand
}

func (*RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) Choose(Observation) int {
	if s.rng == nil {
		return rand.IntN(allocation.NumLevels)
	}
	return s.rng.IntN(allocation.NumLevels)
}

// --- TitForTatStrategy ---

// TitForTatStrategy opens at Opening and then mirrors the agent.
type TitForTatStrategy struct {
	Opening int
}

func (*TitForTatStrategy) Name() string { return "titfortat" }

func (s *TitForTatStrategy) Choose(obs Observation) int {
	if obs.First() {
		return s.Opening
	}
	return obs.AgentLevel
}

// --- ThresholdStrategy ---

// ThresholdStrategy contributes just enough to reach the bonus threshold
// given what the agent contributed last period. It never pays for a bonus
// the agent already secured alone.
type ThresholdStrategy struct{}

func (ThresholdStrategy) Name() string { return "threshold" }

func (ThresholdStrategy) Choose(obs Observation) int {
	agent, err := allocation.ContributionOf(obs.AgentLevel)
	if err != nil {
		return 0
	}
	need := allocation.BonusThreshold - agent
	if need <= 0 {
		return 0
	}
	level, _ := allocation.LevelOf(need)
	return level
}
