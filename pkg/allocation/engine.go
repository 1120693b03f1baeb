// Package allocation implements the repeated two-player contribution game
// played against an adaptive agent. The agent learns a response policy with
// tabular Q-learning and feeds the value update an inequity-averse reward
// whose weighting depends on an evolving kindness value.
package allocation

import (
	"fmt"
	"math"
)

const (
	// StableRepeats is how many consecutive unchanged periods end a game.
	StableRepeats = 5

	minExploration = 0.01
)

// Config holds the engine's hyperparameters.
type Config struct {
	Alpha0             float64 `yaml:"alpha0"`              // initial learning rate
	Decay              float64 `yaml:"decay"`               // learning-rate decay; 0 disables decay
	GammaQ             float64 `yaml:"gamma_q"`             // discount factor
	ExplorationPeriods int     `yaml:"exploration_periods"` // length of the exploration phase
	MaxPeriods         int     `yaml:"max_periods"`         // maximum game length
	Sensitivity        float64 `yaml:"sensitivity"`         // kindness step per period
	Role               Role    `yaml:"player_type"`         // the agent's cost profile
}

// DefaultConfig returns the standard hyperparameters with the agent
// playing the low-cost role.
func DefaultConfig() Config {
	return Config{
		Alpha0:             0.05,
		Decay:              0.005,
		GammaQ:             0.9,
		ExplorationPeriods: 100,
		MaxPeriods:         1000,
		Sensitivity:        0.1,
		Role:               RoleLow,
	}
}

// Validate rejects configurations that would divide by zero or feed
// NaN into the value table.
func (c Config) Validate() error {
	if !c.Role.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, c.Role)
	}
	if c.ExplorationPeriods <= 0 {
		return fmt.Errorf("%w: exploration periods must be positive, got %d", ErrInvalidConfig, c.ExplorationPeriods)
	}
	if c.MaxPeriods <= 0 {
		return fmt.Errorf("%w: max periods must be positive, got %d", ErrInvalidConfig, c.MaxPeriods)
	}
	if c.Decay < 0 {
		return fmt.Errorf("%w: decay must not be negative, got %g", ErrInvalidConfig, c.Decay)
	}
	for name, v := range map[string]float64{
		"alpha0":      c.Alpha0,
		"decay":       c.Decay,
		"gamma_q":     c.GammaQ,
		"sensitivity": c.Sensitivity,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSource sets the random source used for exploration and for the
// greed/envy draws.
func WithSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.rng = src
		}
	}
}

// Engine is one running game. It is not safe for concurrent use; run
// independent simulations on independent engines.
type Engine struct {
	cfg     Config
	payoffs PayoffTable
	rng     Source

	q          ActionValues
	priorOwn   int
	priorOther int
	kindness   float64
	period     int
	stability  int
	greed      float64
	envy       float64
}

// New validates cfg and returns an engine ready for its first period.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg,
		payoffs: PayoffTableFor(cfg.Role),
		rng:     globalSource{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e, nil
}

// Reset clears all learned and per-game state and redraws greed and envy.
func (e *Engine) Reset() {
	e.q = ActionValues{}
	e.priorOwn = 0
	e.priorOther = 0
	e.kindness = 0
	e.period = 0
	e.stability = 0
	e.greed = e.rng.Float64()
	e.envy = e.rng.Float64()
}

// Outcome is everything observable about one period.
type Outcome struct {
	OtherPayoff      float64
	OwnPayoff        float64
	ContributionHigh int
	ContributionLow  int
	Signal           float64 // shaped reward fed to the value update
	Kindness         float64 // kindness after this period's update
	Stability        int
	Period           int
	Done             bool

	Role         Role // the agent's role
	AgentLevel   int
	Explored     bool
	Epsilon      float64
	LearningRate float64
}

// Advance plays one period in which the other player contributes at
// level (an index into Levels).
func (e *Engine) Advance(level int) (Outcome, error) {
	if err := ValidateLevel(level); err != nil {
		return Outcome{}, err
	}

	epsilon := e.ExplorationRate()
	alpha := e.LearningRate()

	state := e.priorOther / 2
	action, explored := e.selectAction(state, epsilon)

	own := Levels[action]
	other := Levels[level]

	if own == e.priorOwn && other == e.priorOther {
		e.stability++
	} else {
		e.stability = 0
	}

	ownPayoff := e.payoffs.Lookup(action, level)
	otherPayoff := float64(Payoff(e.cfg.Role.Other(), other, own))

	signal := e.shape(ownPayoff, otherPayoff)

	next := e.q.Max(level)
	e.q.Update(state, action, signal+e.cfg.GammaQ*next, alpha)

	e.priorOwn = own
	e.priorOther = other
	e.period++

	out := Outcome{
		OtherPayoff:  otherPayoff,
		OwnPayoff:    ownPayoff,
		Signal:       signal,
		Kindness:     e.kindness,
		Stability:    e.stability,
		Period:       e.period,
		Done:         e.Done(),
		Role:         e.cfg.Role,
		AgentLevel:   action,
		Explored:     explored,
		Epsilon:      epsilon,
		LearningRate: alpha,
	}
	if e.cfg.Role == RoleLow {
		out.ContributionLow, out.ContributionHigh = own, other
	} else {
		out.ContributionHigh, out.ContributionLow = own, other
	}
	return out, nil
}

// selectAction is the epsilon-greedy rule over state's row.
func (e *Engine) selectAction(state int, epsilon float64) (int, bool) {
	if e.rng.Float64() < epsilon {
		return e.rng.IntN(NumLevels), true
	}
	action, _ := e.q.Best(state)
	return action, false
}

// shape converts objective payoffs into the agent's utility and moves
// kindness one step toward the side that came out ahead.
func (e *Engine) shape(own, other float64) float64 {
	var signal float64
	if own >= other {
		signal = e.greed*own + e.kindness*(1-e.greed)*other
		e.kindness += e.cfg.Sensitivity
	} else {
		signal = e.envy*own + e.kindness*(1-e.envy)*other
		e.kindness -= e.cfg.Sensitivity
	}
	return signal
}

// ExplorationRate decays linearly from 1 to a 1% floor over the
// exploration phase.
func (e *Engine) ExplorationRate() float64 {
	return math.Max(1-float64(e.period)/float64(e.cfg.ExplorationPeriods), minExploration)
}

// LearningRate is the decayed step size for the current period.
func (e *Engine) LearningRate() float64 {
	return e.cfg.Alpha0 / (1 + float64(e.period)*e.cfg.Decay)
}

// Done reports whether the game has converged or hit its length cap.
func (e *Engine) Done() bool {
	return e.stability >= StableRepeats || e.period == e.cfg.MaxPeriods
}

func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) Role() Role { return e.cfg.Role }
func (e *Engine) Period() int { return e.period }
func (e *Engine) Stability() int { return e.stability }
func (e *Engine) Kindness() float64 { return e.kindness }
func (e *Engine) Greed() float64 { return e.greed }
func (e *Engine) Envy() float64 { return e.envy }
func (e *Engine) ActionValues() ActionValues { return e.q }
