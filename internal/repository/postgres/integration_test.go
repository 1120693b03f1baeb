//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/allocation-game/internal/model"
	"github.com/freeeve/allocation-game/internal/testutil"
)

func setup(t *testing.T) *EpisodeRepo {
	t.Helper()
	db := testutil.SetupDB(t)
	testutil.CleanupDB(t, db)
	return NewEpisodeRepo(db)
}

func testEpisode(finished time.Time) *model.Episode {
	return &model.Episode{
		ID:                  uuid.NewString(),
		Source:              "botmatch",
		Opponent:            "titfortat",
		PlayerType:          "low",
		Greed:               0.4,
		Envy:                0.6,
		Periods:             3,
		Converged:           false,
		AvgContributionHigh: 4,
		AvgContributionLow:  2,
		AvgReward:           5.5,
		AvgEfficiency:       0.8,
		FinalKindness:       0.3,
		StartedAt:           finished.Add(-time.Minute),
		FinishedAt:          finished,
	}
}

func TestSaveAndFindEpisode(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	ep := testEpisode(now)
	periods := []model.Period{
		{Number: 1, ContributionHigh: 4, ContributionLow: 0, PayoffHigh: -12, PayoffLow: 0, Reward: 0, Kindness: 0.1},
		{Number: 2, ContributionHigh: 4, ContributionLow: 4, PayoffHigh: 13, PayoffLow: 21, Reward: 10.5, Kindness: 0.2, Explored: true},
		{Number: 3, ContributionHigh: 4, ContributionLow: 4, PayoffHigh: 13, PayoffLow: 21, Reward: 11, Kindness: 0.3, Stability: 1},
	}

	if err := repo.SaveEpisode(ctx, ep, periods); err != nil {
		t.Fatalf("save episode: %v", err)
	}

	got, err := repo.FindByID(ctx, ep.ID)
	if err != nil {
		t.Fatalf("find episode: %v", err)
	}
	if got == nil {
		t.Fatal("expected episode")
	}
	if got.Opponent != "titfortat" || got.Periods != 3 || got.AvgReward != 5.5 {
		t.Fatalf("unexpected episode: %+v", got)
	}
	if !got.FinishedAt.Equal(now) {
		t.Fatalf("finished_at = %v, want %v", got.FinishedAt, now)
	}

	gotPeriods, err := repo.ListPeriods(ctx, ep.ID)
	if err != nil {
		t.Fatalf("list periods: %v", err)
	}
	if len(gotPeriods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(gotPeriods))
	}
	if gotPeriods[1].PayoffLow != 21 || !gotPeriods[1].Explored || gotPeriods[1].EpisodeID != ep.ID {
		t.Fatalf("unexpected period: %+v", gotPeriods[1])
	}
}

func TestFindEpisodeMissing(t *testing.T) {
	repo := setup(t)
	got, err := repo.FindByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSaveEpisodeRollsBackOnDuplicatePeriod(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	ep := testEpisode(time.Now())
	dup := []model.Period{{Number: 1}, {Number: 1}}

	if err := repo.SaveEpisode(ctx, ep, dup); err == nil {
		t.Fatal("expected error for duplicate period number")
	}
	got, err := repo.FindByID(ctx, ep.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatal("episode should not exist after rollback")
	}
}

func TestListRecent(t *testing.T) {
	repo := setup(t)
	ctx := context.Background()
	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 3; i++ {
		ep := testEpisode(base.Add(time.Duration(i) * time.Minute))
		ids = append(ids, ep.ID)
		if err := repo.SaveEpisode(ctx, ep, nil); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(recent))
	}
	if recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Fatalf("unexpected order: %s, %s", recent[0].ID, recent[1].ID)
	}
}
