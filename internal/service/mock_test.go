package service

import (
	"context"
	"sort"

	"github.com/freeeve/allocation-game/internal/model"
)

type mockEpisodeRepo struct {
	episodes map[string]*model.Episode
	periods  map[string][]model.Period
	lastList int
	finds    int
}

func newMockEpisodeRepo() *mockEpisodeRepo {
	return &mockEpisodeRepo{
		episodes: make(map[string]*model.Episode),
		periods:  make(map[string][]model.Period),
	}
}

func (m *mockEpisodeRepo) SaveEpisode(_ context.Context, ep *model.Episode, periods []model.Period) error {
	cp := *ep
	m.episodes[ep.ID] = &cp
	m.periods[ep.ID] = periods
	return nil
}

func (m *mockEpisodeRepo) FindByID(_ context.Context, id string) (*model.Episode, error) {
	m.finds++
	ep, ok := m.episodes[id]
	if !ok {
		return nil, nil
	}
	cp := *ep
	return &cp, nil
}

func (m *mockEpisodeRepo) ListPeriods(_ context.Context, episodeID string) ([]model.Period, error) {
	return m.periods[episodeID], nil
}

func (m *mockEpisodeRepo) ListRecent(_ context.Context, limit int) ([]model.Episode, error) {
	m.lastList = limit
	var result []model.Episode
	for _, ep := range m.episodes {
		result = append(result, *ep)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FinishedAt.After(result[j].FinishedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type mockProgressCache struct {
	progress map[string]model.TrainingProgress
	scores   map[string][]float64
}

func newMockProgressCache() *mockProgressCache {
	return &mockProgressCache{
		progress: make(map[string]model.TrainingProgress),
		scores:   make(map[string][]float64),
	}
}

func (m *mockProgressCache) SetProgress(_ context.Context, p model.TrainingProgress) error {
	m.progress[p.RunID] = p
	return nil
}

func (m *mockProgressCache) GetProgress(_ context.Context, runID string) (*model.TrainingProgress, error) {
	p, ok := m.progress[runID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProgressCache) PushScore(_ context.Context, runID string, score float64) error {
	m.scores[runID] = append(m.scores[runID], score)
	return nil
}

func (m *mockProgressCache) RecentScores(_ context.Context, runID string, n int) ([]float64, error) {
	s := m.scores[runID]
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s, nil
}
