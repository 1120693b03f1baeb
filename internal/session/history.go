package session

import "github.com/freeeve/allocation-game/pkg/allocation"

// History records every outcome since the last reset and exposes the
// series the history charts plot.
type History struct {
	outcomes []allocation.Outcome
}

// Append adds one period.
func (h *History) Append(out allocation.Outcome) {
	h.outcomes = append(h.outcomes, out)
}

// Len is the number of recorded periods.
func (h *History) Len() int { return len(h.outcomes) }

// Outcomes returns the recorded outcomes in play order.
func (h *History) Outcomes() []allocation.Outcome {
	return h.outcomes
}

func (h *History) series(f func(allocation.Outcome) float64) []float64 {
	s := make([]float64, len(h.outcomes))
	for i, out := range h.outcomes {
		s[i] = f(out)
	}
	return s
}

// TotalPayoff is the joint payoff per period.
func (h *History) TotalPayoff() []float64 {
	return h.series(allocation.Outcome.JointPayoff)
}

// PayoffHigh is the high player's payoff per period.
func (h *History) PayoffHigh() []float64 {
	return h.series(allocation.Outcome.PayoffHigh)
}

// PayoffLow is the low player's payoff per period.
func (h *History) PayoffLow() []float64 {
	return h.series(allocation.Outcome.PayoffLow)
}

func (h *History) ContributionHigh() []float64 {
	return h.series(func(o allocation.Outcome) float64 { return float64(o.ContributionHigh) })
}

func (h *History) ContributionLow() []float64 {
	return h.series(func(o allocation.Outcome) float64 { return float64(o.ContributionLow) })
}

// Reward is the agent's shaped reward per period.
func (h *History) Reward() []float64 {
	return h.series(func(o allocation.Outcome) float64 { return o.Signal })
}

func (h *History) Kindness() []float64 {
	return h.series(func(o allocation.Outcome) float64 { return o.Kindness })
}
