package neural

import "gonum.org/v1/gonum/stat"

// Stats keeps every episode score and a moving window of the latest ones.
type Stats struct {
	window int
	recent []float64
	all    []float64
}

// NewStats returns Stats averaging over the last window scores.
func NewStats(window int) *Stats {
	if window < 1 {
		window = ScoreWindow
	}
	return &Stats{window: window}
}

// Add records one episode score.
func (s *Stats) Add(score float64) {
	s.all = append(s.all, score)
	s.recent = append(s.recent, score)
	if len(s.recent) > s.window {
		s.recent = s.recent[1:]
	}
}

// Average is the mean of the window, 0 before any episode.
func (s *Stats) Average() float64 {
	if len(s.recent) == 0 {
		return 0
	}
	return stat.Mean(s.recent, nil)
}

// Scores returns every recorded score in order.
func (s *Stats) Scores() []float64 {
	return append([]float64(nil), s.all...)
}

// Len is the number of recorded episodes.
func (s *Stats) Len() int { return len(s.all) }
