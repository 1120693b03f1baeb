package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/allocation-game/internal/bot/neural"
	"github.com/freeeve/allocation-game/internal/model"
	"github.com/freeeve/allocation-game/internal/repository"
)

// TrainingService publishes training progress to the progress cache so
// other processes can follow a run.
type TrainingService struct {
	cache    repository.ProgressCache
	runID    string
	episodes int
	now      func() time.Time
}

// NewTrainingService creates a TrainingService for one run of episodes.
func NewTrainingService(cache repository.ProgressCache, runID string, episodes int) *TrainingService {
	return &TrainingService{cache: cache, runID: runID, episodes: episodes, now: time.Now}
}

// RunID identifies the run in the cache.
func (s *TrainingService) RunID() string { return s.runID }

// Report logs p and stores it as the run's latest progress. It matches the
// trainer's hook signature.
func (s *TrainingService) Report(ctx context.Context, p neural.Progress) error {
	log.Info().
		Str("runId", s.runID).
		Int("episode", p.Episode).
		Int("periods", p.Periods).
		Float64("score", p.Score).
		Float64("averageScore", p.AverageScore).
		Msg("Training progress")

	if s.cache == nil {
		return nil
	}
	if err := s.cache.PushScore(ctx, s.runID, p.Score); err != nil {
		return fmt.Errorf("push score: %w", err)
	}
	return s.cache.SetProgress(ctx, model.TrainingProgress{
		RunID:        s.runID,
		Episode:      p.Episode,
		Episodes:     s.episodes,
		Score:        p.Score,
		AverageScore: p.AverageScore,
		Periods:      p.Periods,
		UpdatedAt:    s.now(),
	})
}

// Hook adapts Report to neural.Trainer.Train.
func (s *TrainingService) Hook(ctx context.Context) func(neural.Progress) error {
	return func(p neural.Progress) error { return s.Report(ctx, p) }
}

// Status returns the run's latest progress and up to n recent scores.
func (s *TrainingService) Status(ctx context.Context, n int) (*model.TrainingProgress, []float64, error) {
	if s.cache == nil {
		return nil, nil, nil
	}
	p, err := s.cache.GetProgress(ctx, s.runID)
	if err != nil {
		return nil, nil, err
	}
	scores, err := s.cache.RecentScores(ctx, s.runID, n)
	if err != nil {
		return nil, nil, err
	}
	return p, scores, nil
}
