package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/allocation-game/internal/model"
)

// maxScores caps the per-run score list kept for charting.
const maxScores = 10000

func progressKey(runID string) string { return "train:" + runID + ":progress" }
func scoresKey(runID string) string   { return "train:" + runID + ":scores" }

// SetProgress stores the latest progress snapshot of a training run.
func (c *Client) SetProgress(ctx context.Context, p model.TrainingProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	return c.rdb.Set(ctx, progressKey(p.RunID), data, c.ttl).Err()
}

// GetProgress returns the latest progress of a run, or nil if none was stored.
func (c *Client) GetProgress(ctx context.Context, runID string) (*model.TrainingProgress, error) {
	data, err := c.rdb.Get(ctx, progressKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	var p model.TrainingProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal progress: %w", err)
	}
	return &p, nil
}

// PushScore appends an episode score to the run's capped score list.
func (c *Client) PushScore(ctx context.Context, runID string, score float64) error {
	key := scoresKey(runID)
	pipe := c.rdb.TxPipeline()
	pipe.RPush(ctx, key, strconv.FormatFloat(score, 'g', -1, 64))
	pipe.LTrim(ctx, key, -maxScores, -1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push score: %w", err)
	}
	return nil
}

// RecentScores returns up to n of the most recent scores, oldest first.
func (c *Client) RecentScores(ctx context.Context, runID string, n int) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	vals, err := c.rdb.LRange(ctx, scoresKey(runID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("recent scores: %w", err)
	}
	scores := make([]float64, 0, len(vals))
	for _, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", v, err)
		}
		scores = append(scores, f)
	}
	return scores, nil
}
