package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/freeeve/allocation-game/internal/model"
	"github.com/freeeve/allocation-game/internal/repository"
	"github.com/freeeve/allocation-game/internal/session"
)

var (
	ErrEpisodeNotFound = errors.New("episode not found")
	ErrEmptyEpisode    = errors.New("episode has no periods")
)

// EpisodeService records finished sessions and reads back past episodes.
type EpisodeService struct {
	repo repository.EpisodeRepository
}

// NewEpisodeService creates an EpisodeService.
func NewEpisodeService(repo repository.EpisodeRepository) *EpisodeService {
	return &EpisodeService{repo: repo}
}

// Save persists the session's episode and period history. Sessions with no
// periods are rejected.
func (s *EpisodeService) Save(ctx context.Context, sess *session.Session, source string) (*model.Episode, error) {
	ep, periods := sess.Record(source)
	if len(periods) == 0 {
		return nil, ErrEmptyEpisode
	}
	if err := s.repo.SaveEpisode(ctx, ep, periods); err != nil {
		return nil, fmt.Errorf("save episode %s: %w", ep.ID, err)
	}
	return ep, nil
}

// Get returns an episode with its periods. IDs that are not UUIDs cannot
// name an episode and report ErrEpisodeNotFound.
func (s *EpisodeService) Get(ctx context.Context, id string) (*model.Episode, []model.Period, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrEpisodeNotFound
	}
	ep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ep == nil {
		return nil, nil, ErrEpisodeNotFound
	}
	periods, err := s.repo.ListPeriods(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return ep, periods, nil
}

// Recent returns the latest episodes, newest first. limit is clamped to
// 1..100 with 20 as the default.
func (s *EpisodeService) Recent(ctx context.Context, limit int) ([]model.Episode, error) {
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return s.repo.ListRecent(ctx, limit)
}
