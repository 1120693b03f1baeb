// Package session runs one interactive game against the agent and keeps the
// per-period history a presentation layer charts and summarizes.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/freeeve/allocation-game/internal/logger"
	"github.com/freeeve/allocation-game/internal/model"
	"github.com/freeeve/allocation-game/pkg/allocation"
)

// Session owns one engine and the history of the game being played on it.
type Session struct {
	ID       string
	Opponent string

	engine    *allocation.Engine
	history   History
	startedAt time.Time
	log       zerolog.Logger
	now       func() time.Time
}

// New starts a session on engine. opponent names who plays the other seat.
func New(ctx context.Context, engine *allocation.Engine, opponent string) *Session {
	id := logger.SessionIDFromContext(ctx)
	if id == "" {
		id = logger.NewSessionID()
		ctx = logger.WithSessionID(ctx, id)
	}
	s := &Session{
		ID:       id,
		Opponent: opponent,
		engine:   engine,
		log:      logger.ForSession(ctx),
		now:      time.Now,
	}
	s.startedAt = s.now()
	return s
}

// Engine returns the underlying engine.
func (s *Session) Engine() *allocation.Engine { return s.engine }

// History returns the periods played since the last reset.
func (s *Session) History() *History { return &s.history }

// Play advances the game one period with the other player at level.
func (s *Session) Play(level int) (allocation.Outcome, error) {
	out, err := s.engine.Advance(level)
	if err != nil {
		return out, err
	}
	s.history.Append(out)

	s.log.Debug().
		Int("period", out.Period).
		Int("contributionHigh", out.ContributionHigh).
		Int("contributionLow", out.ContributionLow).
		Float64("payoffHigh", out.PayoffHigh()).
		Float64("payoffLow", out.PayoffLow()).
		Float64("reward", out.Signal).
		Float64("kindness", out.Kindness).
		Int("counter", out.Stability).
		Bool("explored", out.Explored).
		Msg("Period played")

	if out.Done {
		sum := s.Summary()
		s.log.Info().
			Int("periods", sum.Periods).
			Bool("converged", sum.Converged).
			Float64("avgReward", sum.AvgReward).
			Float64("avgEfficiency", sum.AvgEfficiency).
			Msg("Game finished")
	}
	return out, nil
}

// Reset restarts the game on the same engine, clears the history and
// assigns a new ID so the next game is recorded as its own episode.
func (s *Session) Reset() {
	s.engine.Reset()
	s.history = History{}
	s.ID = logger.NewSessionID()
	s.log = logger.ForSession(logger.WithSessionID(context.Background(), s.ID))
	s.startedAt = s.now()
	s.log.Info().Msg("Game reset")
}

// Summary is the end-of-game report.
type Summary struct {
	Periods             int
	Converged           bool
	Greed               float64
	Envy                float64
	AvgContributionHigh float64
	AvgContributionLow  float64
	AvgReward           float64
	AvgEfficiency       float64
	FinalKindness       float64
}

// Summary reports averages over the periods played so far.
func (s *Session) Summary() Summary {
	sum := Summary{
		Periods:   s.history.Len(),
		Converged: s.engine.Stability() >= allocation.StableRepeats,
		Greed:     s.engine.Greed(),
		Envy:      s.engine.Envy(),
	}
	if sum.Periods == 0 {
		return sum
	}
	h := &s.history
	sum.AvgContributionHigh = stat.Mean(h.ContributionHigh(), nil)
	sum.AvgContributionLow = stat.Mean(h.ContributionLow(), nil)
	sum.AvgReward = stat.Mean(h.Reward(), nil)
	sum.AvgEfficiency = stat.Mean(h.TotalPayoff(), nil) / allocation.MaxJointPayoff
	sum.FinalKindness = s.engine.Kindness()
	return sum
}

// Record converts the session into persisted form.
func (s *Session) Record(source string) (*model.Episode, []model.Period) {
	sum := s.Summary()
	ep := &model.Episode{
		ID:                  s.ID,
		Source:              source,
		Opponent:            s.Opponent,
		PlayerType:          string(s.engine.Role()),
		Greed:               sum.Greed,
		Envy:                sum.Envy,
		Periods:             sum.Periods,
		Converged:           sum.Converged,
		AvgContributionHigh: sum.AvgContributionHigh,
		AvgContributionLow:  sum.AvgContributionLow,
		AvgReward:           sum.AvgReward,
		AvgEfficiency:       sum.AvgEfficiency,
		FinalKindness:       sum.FinalKindness,
		StartedAt:           s.startedAt,
		FinishedAt:          s.now(),
	}
	periods := make([]model.Period, 0, s.history.Len())
	for _, out := range s.history.Outcomes() {
		periods = append(periods, model.Period{
			EpisodeID:        s.ID,
			Number:           out.Period,
			ContributionHigh: out.ContributionHigh,
			ContributionLow:  out.ContributionLow,
			PayoffHigh:       out.PayoffHigh(),
			PayoffLow:        out.PayoffLow(),
			Reward:           out.Signal,
			Kindness:         out.Kindness,
			Stability:        out.Stability,
			Explored:         out.Explored,
		})
	}
	return ep, periods
}
