package bot

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/freeeve/allocation-game/internal/model"
)

type mockEpisodeRepo struct {
	mu       sync.Mutex
	episodes map[string]*model.Episode
	periods  map[string][]model.Period
	failWith error
}

func newMockEpisodeRepo() *mockEpisodeRepo {
	return &mockEpisodeRepo{
		episodes: make(map[string]*model.Episode),
		periods:  make(map[string][]model.Period),
	}
}

func (m *mockEpisodeRepo) SaveEpisode(_ context.Context, ep *model.Episode, periods []model.Period) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.episodes[ep.ID]; ok {
		return errors.New("duplicate episode")
	}
	cp := *ep
	m.episodes[ep.ID] = &cp
	m.periods[ep.ID] = append([]model.Period(nil), periods...)
	return nil
}

func (m *mockEpisodeRepo) FindByID(_ context.Context, id string) (*model.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.episodes[id]
	if !ok {
		return nil, nil
	}
	cp := *ep
	return &cp, nil
}

func (m *mockEpisodeRepo) ListPeriods(_ context.Context, episodeID string) ([]model.Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.periods[episodeID], nil
}

func (m *mockEpisodeRepo) ListRecent(_ context.Context, limit int) ([]model.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Episode
	for _, ep := range m.episodes {
		result = append(result, *ep)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
