package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/allocation-game/internal/logger"
	"github.com/freeeve/allocation-game/internal/repository"
	"github.com/freeeve/allocation-game/internal/session"
	"github.com/freeeve/allocation-game/pkg/allocation"
)

// ArenaConfig configures a single bot-vs-agent episode.
type ArenaConfig struct {
	Name     string
	Strategy string            // see StrategyForName
	Engine   allocation.Config // agent hyperparameters
	Seed     int64             // 0 = random
	DryRun   bool              // skip DB writes
}

// ArenaResult describes a finished episode.
type ArenaResult struct {
	EpisodeID           string  `json:"episode_id"`
	Name                string  `json:"name"`
	Strategy            string  `json:"strategy"`
	Seed                int64   `json:"seed"`
	Periods             int     `json:"periods"`
	Converged           bool    `json:"converged"`
	Greed               float64 `json:"greed"`
	Envy                float64 `json:"envy"`
	AvgContributionHigh float64 `json:"avg_contribution_high"`
	AvgContributionLow  float64 `json:"avg_contribution_low"`
	AvgReward           float64 `json:"avg_reward"`
	AvgEfficiency       float64 `json:"avg_efficiency"`
	FinalKindness       float64 `json:"final_kindness"`
}

// RunEpisode plays one game of the named strategy against a fresh agent
// until the game is done, saving it to repo unless cfg.DryRun is set.
// Pass a nil repo for dry-run mode.
func RunEpisode(ctx context.Context, cfg ArenaConfig, repo repository.EpisodeRepository) (*ArenaResult, error) {
	rng := newRng(cfg.Seed)
	engine, err := allocation.New(cfg.Engine, allocation.WithSource(splitRng(rng)))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	strategy, err := StrategyForName(cfg.Strategy, splitRng(rng))
	if err != nil {
		return nil, err
	}

	ctx = logger.WithSessionID(ctx, logger.NewSessionID())
	s := session.New(ctx, engine, strategy.Name())

	var obs Observation
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out, err := s.Play(strategy.Choose(obs))
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", obs.Period+1, err)
		}
		if out.Done {
			break
		}
		obs = observe(out)
	}

	sum := s.Summary()
	result := &ArenaResult{
		EpisodeID:           s.ID,
		Name:                cfg.Name,
		Strategy:            strategy.Name(),
		Seed:                cfg.Seed,
		Periods:             sum.Periods,
		Converged:           sum.Converged,
		Greed:               sum.Greed,
		Envy:                sum.Envy,
		AvgContributionHigh: sum.AvgContributionHigh,
		AvgContributionLow:  sum.AvgContributionLow,
		AvgReward:           sum.AvgReward,
		AvgEfficiency:       sum.AvgEfficiency,
		FinalKindness:       sum.FinalKindness,
	}

	if !cfg.DryRun && repo != nil {
		ep, periods := s.Record("botmatch")
		if err := repo.SaveEpisode(ctx, ep, periods); err != nil {
			return nil, fmt.Errorf("save episode: %w", err)
		}
	}

	log.Info().
		Str("episodeId", result.EpisodeID).
		Str("strategy", result.Strategy).
		Int("periods", result.Periods).
		Bool("converged", result.Converged).
		Msg("Arena episode finished")
	return result, nil
}

// RunMatch plays n episodes on at most workers goroutines. Episode i uses
// seed cfg.Seed+i (or a random seed when cfg.Seed is 0). Failed episodes
// leave a nil entry in the results and contribute to the joined error.
func RunMatch(ctx context.Context, cfg ArenaConfig, n, workers int, repo repository.EpisodeRepository) ([]*ArenaResult, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([]*ArenaResult, n)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	sem := make(chan struct{}, workers)

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			epCfg := cfg
			epCfg.Name = fmt.Sprintf("%s-%d", cfg.Name, idx+1)
			if cfg.Seed != 0 {
				epCfg.Seed = cfg.Seed + int64(idx)
			}

			result, err := RunEpisode(ctx, epCfg, repo)
			if err != nil {
				log.Error().Err(err).Int("episode", idx+1).Msg("Episode failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("episode %d: %w", idx+1, err))
				mu.Unlock()
				return
			}
			results[idx] = result
		}(i)
	}

	wg.Wait()
	return results, errors.Join(errs...)
}
