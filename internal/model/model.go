package model

import "time"

// Episode summarizes one finished (or abandoned) game against the agent.
type Episode struct {
	ID                  string    `json:"id"`
	Source              string    `json:"source"`   // play, botmatch, train
	Opponent            string    `json:"opponent"` // strategy name, or "human"
	PlayerType          string    `json:"player_type"`
	Greed               float64   `json:"greed"`
	Envy                float64   `json:"envy"`
	Periods             int       `json:"periods"`
	Converged           bool      `json:"converged"`
	AvgContributionHigh float64   `json:"avg_contribution_high"`
	AvgContributionLow  float64   `json:"avg_contribution_low"`
	AvgReward           float64   `json:"avg_reward"`
	AvgEfficiency       float64   `json:"avg_efficiency"`
	FinalKindness       float64   `json:"final_kindness"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

// Period is one row of an episode's history.
type Period struct {
	EpisodeID        string  `json:"episode_id"`
	Number           int     `json:"number"`
	ContributionHigh int     `json:"contribution_high"`
	ContributionLow  int     `json:"contribution_low"`
	PayoffHigh       float64 `json:"payoff_high"`
	PayoffLow        float64 `json:"payoff_low"`
	Reward           float64 `json:"reward"`
	Kindness         float64 `json:"kindness"`
	Stability        int     `json:"stability"`
	Explored         bool    `json:"explored"`
}

// TrainingProgress is the latest state of a policy-gradient training run.
type TrainingProgress struct {
	RunID        string    `json:"run_id"`
	Episode      int       `json:"episode"`
	Episodes     int       `json:"episodes"`
	Score        float64   `json:"score"`
	AverageScore float64   `json:"average_score"`
	Periods      int       `json:"periods"`
	UpdatedAt    time.Time `json:"updated_at"`
}
