package allocation

import "gonum.org/v1/gonum/floats"

// ActionValues is the learned Q table: one row per state (the other
// player's previous level), one column per own level.
type ActionValues [NumLevels][NumLevels]float64

// Row returns a copy of the values for state.
func (q *ActionValues) Row(state int) []float64 {
	row := make([]float64, NumLevels)
	copy(row, q[state][:])
	return row
}

// Best returns the greedy action for state and its value. Ties resolve
// to the lowest level.
func (q *ActionValues) Best(state int) (int, float64) {
	row := q.Row(state)
	idx := floats.MaxIdx(row)
	return idx, row[idx]
}

// Max returns the largest value in state's row.
func (q *ActionValues) Max(state int) float64 {
	return floats.Max(q[state][:])
}

// Update blends target into the (state, action) entry with rate alpha.
func (q *ActionValues) Update(state, action int, target, alpha float64) {
	q[state][action] = (1-alpha)*q[state][action] + alpha*target
}
