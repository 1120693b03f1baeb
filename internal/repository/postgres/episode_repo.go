package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/allocation-game/internal/model"
)

// EpisodeRepo handles episode and period database operations.
type EpisodeRepo struct {
	db *sql.DB
}

// NewEpisodeRepo creates an EpisodeRepo.
func NewEpisodeRepo(db *sql.DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

// SaveEpisode inserts an episode and its periods in one transaction.
func (r *EpisodeRepo) SaveEpisode(ctx context.Context, ep *model.Episode, periods []model.Period) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save episode: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO episodes (id, source, opponent, player_type, greed, envy, periods, converged,
		                       avg_contribution_high, avg_contribution_low, avg_reward, avg_efficiency,
		                       final_kindness, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ep.ID, ep.Source, ep.Opponent, ep.PlayerType, ep.Greed, ep.Envy, ep.Periods, ep.Converged,
		ep.AvgContributionHigh, ep.AvgContributionLow, ep.AvgReward, ep.AvgEfficiency,
		ep.FinalKindness, ep.StartedAt, ep.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save episode: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO periods (episode_id, number, contribution_high, contribution_low, payoff_high, payoff_low,
		                      reward, kindness, stability, explored)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("save episode: prepare periods: %w", err)
	}
	defer stmt.Close()

	for _, p := range periods {
		if _, err := stmt.ExecContext(ctx, ep.ID, p.Number, p.ContributionHigh, p.ContributionLow,
			p.PayoffHigh, p.PayoffLow, p.Reward, p.Kindness, p.Stability, p.Explored); err != nil {
			return fmt.Errorf("save period %d: %w", p.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save episode: commit: %w", err)
	}
	return nil
}

const episodeColumns = `id, source, opponent, player_type, greed, envy, periods, converged,
	avg_contribution_high, avg_contribution_low, avg_reward, avg_efficiency,
	final_kindness, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(s scanner) (*model.Episode, error) {
	var ep model.Episode
	err := s.Scan(&ep.ID, &ep.Source, &ep.Opponent, &ep.PlayerType, &ep.Greed, &ep.Envy, &ep.Periods, &ep.Converged,
		&ep.AvgContributionHigh, &ep.AvgContributionLow, &ep.AvgReward, &ep.AvgEfficiency,
		&ep.FinalKindness, &ep.StartedAt, &ep.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// FindByID returns an episode by ID, or nil if it does not exist.
func (r *EpisodeRepo) FindByID(ctx context.Context, id string) (*model.Episode, error) {
	ep, err := scanEpisode(r.db.QueryRowContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find episode: %w", err)
	}
	return ep, nil
}

// ListPeriods returns an episode's periods in play order.
func (r *EpisodeRepo) ListPeriods(ctx context.Context, episodeID string) ([]model.Period, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT episode_id, number, contribution_high, contribution_low, payoff_high, payoff_low,
		        reward, kindness, stability, explored
		 FROM periods WHERE episode_id = $1 ORDER BY number`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []model.Period
	for rows.Next() {
		var p model.Period
		if err := rows.Scan(&p.EpisodeID, &p.Number, &p.ContributionHigh, &p.ContributionLow,
			&p.PayoffHigh, &p.PayoffLow, &p.Reward, &p.Kindness, &p.Stability, &p.Explored); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ListRecent returns the most recently finished episodes, newest first.
func (r *EpisodeRepo) ListRecent(ctx context.Context, limit int) ([]model.Episode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+episodeColumns+` FROM episodes ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent episodes: %w", err)
	}
	defer rows.Close()

	var episodes []model.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	return episodes, rows.Err()
}
