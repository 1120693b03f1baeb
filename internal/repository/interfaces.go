package repository

import (
	"context"

	"github.com/freeeve/allocation-game/internal/model"
)

// EpisodeRepository stores finished episodes and their period history.
type EpisodeRepository interface {
	SaveEpisode(ctx context.Context, ep *model.Episode, periods []model.Period) error
	FindByID(ctx context.Context, id string) (*model.Episode, error)
	ListPeriods(ctx context.Context, episodeID string) ([]model.Period, error)
	ListRecent(ctx context.Context, limit int) ([]model.Episode, error)
}

// ProgressCache holds live training progress (Redis).
type ProgressCache interface {
	SetProgress(ctx context.Context, p model.TrainingProgress) error
	GetProgress(ctx context.Context, runID string) (*model.TrainingProgress, error)
	PushScore(ctx context.Context, runID string, score float64) error
	RecentScores(ctx context.Context, runID string, n int) ([]float64, error)
}
