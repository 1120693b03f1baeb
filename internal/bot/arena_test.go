package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

func testArenaConfig(strategy string, seed int64) ArenaConfig {
	cfg := allocation.DefaultConfig()
	cfg.MaxPeriods = 300
	return ArenaConfig{
		Name:     "test",
		Strategy: strategy,
		Engine:   cfg,
		Seed:     seed,
	}
}

func TestRunEpisodeDryRun(t *testing.T) {
	cfg := testArenaConfig("random", 42)
	cfg.DryRun = true

	result, err := RunEpisode(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("RunEpisode failed: %v", err)
	}
	if result.Periods == 0 || result.Periods > cfg.Engine.MaxPeriods {
		t.Errorf("periods = %d, want 1..%d", result.Periods, cfg.Engine.MaxPeriods)
	}
	if result.Strategy != "random" {
		t.Errorf("strategy = %q", result.Strategy)
	}
	if result.AvgEfficiency < -1 || result.AvgEfficiency > 1 {
		t.Errorf("efficiency out of range: %v", result.AvgEfficiency)
	}
	t.Logf("Result: periods=%d converged=%v efficiency=%.3f", result.Periods, result.Converged, result.AvgEfficiency)
}

func TestRunEpisodeSeedIsReproducible(t *testing.T) {
	cfg := testArenaConfig("random", 99)
	cfg.DryRun = true

	a, err := RunEpisode(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunEpisode(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a.Periods != b.Periods || a.AvgReward != b.AvgReward || a.Greed != b.Greed || a.Envy != b.Envy {
		t.Errorf("same seed produced different episodes: %+v vs %+v", a, b)
	}
	if a.EpisodeID == b.EpisodeID {
		t.Error("episode IDs should be unique")
	}
}

func TestRunEpisodeFixedOpponentConverges(t *testing.T) {
	// Once exploration ends the agent plays greedily against a constant
	// opponent, so the pair stops changing well before the cap.
	cfg := testArenaConfig("fixed:4", 5)
	cfg.Engine.MaxPeriods = 1000
	cfg.DryRun = true

	result, err := RunEpisode(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Converged {
		t.Errorf("expected convergence, ran %d periods", result.Periods)
	}
	if result.AvgContributionHigh != 8 {
		t.Errorf("high contribution = %v, want 8", result.AvgContributionHigh)
	}
}

func TestRunEpisodeSaves(t *testing.T) {
	repo := newMockEpisodeRepo()
	result, err := RunEpisode(context.Background(), testArenaConfig("threshold", 3), repo)
	if err != nil {
		t.Fatal(err)
	}
	ep, _ := repo.FindByID(context.Background(), result.EpisodeID)
	if ep == nil {
		t.Fatal("episode not saved")
	}
	if ep.Source != "botmatch" || ep.Opponent != "threshold" || ep.Periods != result.Periods {
		t.Errorf("unexpected saved episode: %+v", ep)
	}
	periods, _ := repo.ListPeriods(context.Background(), result.EpisodeID)
	if len(periods) != result.Periods {
		t.Errorf("saved %d periods, want %d", len(periods), result.Periods)
	}
}

func TestRunEpisodeSaveError(t *testing.T) {
	repo := newMockEpisodeRepo()
	repo.failWith = errors.New("db down")
	if _, err := RunEpisode(context.Background(), testArenaConfig("random", 3), repo); err == nil {
		t.Fatal("expected save error")
	}
}

func TestRunEpisodeRejectsBadInput(t *testing.T) {
	cfg := testArenaConfig("nope", 1)
	if _, err := RunEpisode(context.Background(), cfg, nil); err == nil {
		t.Error("expected unknown strategy error")
	}

	cfg = testArenaConfig("random", 1)
	cfg.Engine.MaxPeriods = 0
	if _, err := RunEpisode(context.Background(), cfg, nil); !errors.Is(err, allocation.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestRunEpisodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunEpisode(ctx, testArenaConfig("random", 1), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunMatch(t *testing.T) {
	repo := newMockEpisodeRepo()
	results, err := RunMatch(context.Background(), testArenaConfig("titfortat", 10), 6, 3, repo)
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("got %d results, want 6", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d missing", i)
		}
		if r.Seed != 10+int64(i) {
			t.Errorf("result %d seed = %d", i, r.Seed)
		}
	}
	recent, _ := repo.ListRecent(context.Background(), 100)
	if len(recent) != 6 {
		t.Errorf("saved %d episodes, want 6", len(recent))
	}
}

func TestRunMatchCollectsErrors(t *testing.T) {
	repo := newMockEpisodeRepo()
	repo.failWith = errors.New("db down")
	results, err := RunMatch(context.Background(), testArenaConfig("random", 1), 3, 0, repo)
	if err == nil {
		t.Fatal("expected joined error")
	}
	for i, r := range results {
		if r != nil {
			t.Errorf("result %d should be nil on failure", i)
		}
	}
}
