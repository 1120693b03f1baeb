// Package neural trains a small policy network against the adaptive agent
// with REINFORCE. The network plays the other seat and is rewarded with the
// joint payoff, so it learns how to steer the agent toward efficient play.
package neural

import (
	"context"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/allocation-game/internal/session"
	"github.com/freeeve/allocation-game/pkg/allocation"
)

// TrainerConfig configures a training run.
type TrainerConfig struct {
	Hidden       int
	LearningRate float64
	Gamma        float64 // return discount
	MaxSteps     int     // per-episode cap
	Engine       allocation.Config
	Seed         uint64 // 0 = random
}

// DefaultTrainerConfig returns the standard training setup: 5 hidden units,
// Adam at 1e-2, gamma 0.99, and 200-period games.
func DefaultTrainerConfig() TrainerConfig {
	eng := allocation.DefaultConfig()
	eng.MaxPeriods = DefaultMaxPeriods
	return TrainerConfig{
		Hidden:       DefaultHidden,
		LearningRate: DefaultLearningRate,
		Gamma:        DefaultGamma,
		MaxSteps:     DefaultMaxSteps,
		Engine:       eng,
	}
}

// Progress reports one finished training episode.
type Progress struct {
	Episode      int
	Periods      int
	Score        float64 // mean per-period reward
	AverageScore float64 // mean score over the moving window
}

// Trainer owns a policy, its optimizer and the engine it trains against.
type Trainer struct {
	cfg     TrainerConfig
	policy  *Policy
	opt     *adam
	engine  *allocation.Engine
	rng     *rand.Rand
	stats   *Stats
	episode int
}

// NewTrainer validates cfg and builds a freshly initialized policy.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %g", cfg.LearningRate)
	}
	if cfg.Gamma < 0 || cfg.Gamma > 1 {
		return nil, fmt.Errorf("gamma must be in [0, 1], got %g", cfg.Gamma)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := allocation.NewSeededSource(seed)

	engine, err := allocation.New(cfg.Engine, allocation.WithSource(allocation.NewSeededSource(rng.Uint64())))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	policy := NewPolicy(cfg.Hidden, rng)
	return &Trainer{
		cfg:    cfg,
		policy: policy,
		opt:    newAdam(policy.params(), cfg.LearningRate),
		engine: engine,
		rng:    rng,
		stats:  NewStats(ScoreWindow),
	}, nil
}

// Policy returns the policy being trained.
func (t *Trainer) Policy() *Policy { return t.policy }

// Stats returns the score history.
func (t *Trainer) Stats() *Stats { return t.stats }

// step is one sampled decision and the reward it earned.
type step struct {
	fp     *pass
	action int
	reward float64
}

// TrainEpisode plays one game from a reset engine, then applies one
// policy-gradient update.
func (t *Trainer) TrainEpisode() (Progress, error) {
	t.engine.Reset()
	obs := allocation.InitialObservation()

	var steps []step
	for len(steps) < t.cfg.MaxSteps {
		fp, err := t.policy.forward(obs)
		if err != nil {
			return Progress{}, err
		}
		action := sample(fp.probs, t.rng)
		out, err := t.engine.Advance(action)
		if err != nil {
			return Progress{}, err
		}
		steps = append(steps, step{fp: fp, action: action, reward: out.Efficiency()})
		obs = out.Observation()
		if out.Done {
			break
		}
	}

	if err := t.update(steps); err != nil {
		return Progress{}, err
	}

	rewards := make([]float64, len(steps))
	for i, s := range steps {
		rewards[i] = s.reward
	}
	score := stat.Mean(rewards, nil)
	t.stats.Add(score)
	t.episode++

	return Progress{
		Episode:      t.episode,
		Periods:      len(steps),
		Score:        score,
		AverageScore: t.stats.Average(),
	}, nil
}

// update applies REINFORCE: loss = -Σ log π(a_t|s_t)·G_t with G the
// discounted returns centred on their mean.
func (t *Trainer) update(steps []step) error {
	if len(steps) == 0 {
		return nil
	}
	returns := discountedReturns(steps, t.cfg.Gamma)
	mean := stat.Mean(returns, nil)

	grads := t.policy.zeroGradients()
	for i, s := range steps {
		if err := t.policy.backward(s.fp, s.action, returns[i]-mean, grads); err != nil {
			return fmt.Errorf("backward step %d: %w", i, err)
		}
	}
	t.opt.apply(t.policy.params(), grads)
	return nil
}

func discountedReturns(steps []step, gamma float64) []float64 {
	returns := make([]float64, len(steps))
	var g float64
	for i := len(steps) - 1; i >= 0; i-- {
		g = steps[i].reward + gamma*g
		returns[i] = g
	}
	return returns
}

// Train runs episodes episodes, calling hook every every episodes and after
// the last one. A hook error or context cancellation stops training.
func (t *Trainer) Train(ctx context.Context, episodes, every int, hook func(Progress) error) error {
	if every < 1 {
		every = 1
	}
	for i := 1; i <= episodes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := t.TrainEpisode()
		if err != nil {
			return fmt.Errorf("episode %d: %w", t.episode+1, err)
		}
		if hook != nil && (i%every == 0 || i == episodes) {
			if err := hook(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate plays one sampled game with the current policy and returns the
// session holding its history. It does not update the policy.
func (t *Trainer) Evaluate(ctx context.Context) (*session.Session, error) {
	t.engine.Reset()
	s := session.New(ctx, t.engine, "policy")
	obs := allocation.InitialObservation()
	for s.History().Len() < t.cfg.MaxSteps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		action, _, err := t.policy.Act(obs, t.rng)
		if err != nil {
			return nil, err
		}
		out, err := s.Play(action)
		if err != nil {
			return nil, err
		}
		if out.Done {
			break
		}
		obs = out.Observation()
	}
	return s, nil
}
