package neural

import (
	"math"

	"gorgonia.org/tensor"
)

// adam is the Adam optimizer over a fixed parameter list.
type adam struct {
	lr   float64
	step int
	m    [][]float64
	v    [][]float64
}

func newAdam(params []*tensor.Dense, lr float64) *adam {
	a := &adam{lr: lr}
	for _, p := range params {
		n := p.Shape().TotalSize()
		a.m = append(a.m, make([]float64, n))
		a.v = append(a.v, make([]float64, n))
	}
	return a
}

// apply moves params one step against grads.
func (a *adam) apply(params []*tensor.Dense, grads gradients) {
	a.step++
	c1 := 1 - math.Pow(adamBeta1, float64(a.step))
	c2 := 1 - math.Pow(adamBeta2, float64(a.step))

	for i, p := range params {
		w := p.Data().([]float64)
		g := grads[i].Data().([]float64)
		m, v := a.m[i], a.v[i]
		for j := range w {
			m[j] = adamBeta1*m[j] + (1-adamBeta1)*g[j]
			v[j] = adamBeta2*v[j] + (1-adamBeta2)*g[j]*g[j]
			w[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + adamEpsilon)
		}
	}
}
