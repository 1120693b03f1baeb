package neural

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

// Policy is a two-layer network mapping an observation to a distribution
// over contribution levels: obs(3) -> hidden (ReLU) -> 6 (softmax).
// Weights are stored input-major so a forward pass is x·W + b.
type Policy struct {
	hidden int
	w1     *tensor.Dense // (3, H)
	b1     *tensor.Dense // (1, H)
	w2     *tensor.Dense // (H, 6)
	b2     *tensor.Dense // (1, 6)
}

// NewPolicy initializes weights and biases uniformly in ±1/sqrt(fan_in).
func NewPolicy(hidden int, rng allocation.Source) *Policy {
	if hidden < 1 {
		hidden = DefaultHidden
	}
	return &Policy{
		hidden: hidden,
		w1:     uniform(rng, ObservationSize, ObservationSize, hidden),
		b1:     uniform(rng, ObservationSize, 1, hidden),
		w2:     uniform(rng, hidden, hidden, ActionSize),
		b2:     uniform(rng, hidden, 1, ActionSize),
	}
}

func uniform(rng allocation.Source, fanIn, rows, cols int) *tensor.Dense {
	bound := 1 / math.Sqrt(float64(fanIn))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * bound
	}
	return tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(data))
}

// Hidden returns the hidden layer width.
func (p *Policy) Hidden() int { return p.hidden }

// params lists the trainable tensors in a fixed order shared with the
// gradient buffers and the optimizer state.
func (p *Policy) params() []*tensor.Dense {
	return []*tensor.Dense{p.w1, p.b1, p.w2, p.b2}
}

// pass holds the intermediate values of one forward pass for backprop.
type pass struct {
	x      []float64
	pre    []float64 // hidden pre-activation
	h      []float64 // hidden activation
	logits []float64
	probs  []float64
}

func (p *Policy) forward(obs allocation.Observation) (*pass, error) {
	x := append([]float64(nil), obs[:]...)
	xt := tensor.New(tensor.WithShape(1, ObservationSize), tensor.WithBacking(x))

	pre, err := affine(xt, p.w1, p.b1)
	if err != nil {
		return nil, fmt.Errorf("hidden layer: %w", err)
	}
	h := make([]float64, len(pre))
	for i, v := range pre {
		h[i] = math.Max(v, 0)
	}

	ht := tensor.New(tensor.WithShape(1, p.hidden), tensor.WithBacking(h))
	logits, err := affine(ht, p.w2, p.b2)
	if err != nil {
		return nil, fmt.Errorf("output layer: %w", err)
	}

	return &pass{x: x, pre: pre, h: h, logits: logits, probs: softmax(logits)}, nil
}

// affine computes x·w + b and returns the flattened result.
func affine(x, w, b *tensor.Dense) ([]float64, error) {
	xw, err := tensor.MatMul(x, w)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Add(xw, b)
	if err != nil {
		return nil, err
	}
	data, ok := out.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("unexpected tensor data %T", out.Data())
	}
	return append([]float64(nil), data...), nil
}

func softmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	probs := make([]float64, len(logits))
	for i, z := range logits {
		probs[i] = math.Exp(z - lse)
	}
	return probs
}

// Probs returns the level distribution for obs.
func (p *Policy) Probs(obs allocation.Observation) ([]float64, error) {
	fp, err := p.forward(obs)
	if err != nil {
		return nil, err
	}
	return fp.probs, nil
}

// Act samples a level from the distribution for obs and returns it with the
// distribution it was drawn from.
func (p *Policy) Act(obs allocation.Observation, rng allocation.Source) (int, []float64, error) {
	fp, err := p.forward(obs)
	if err != nil {
		return 0, nil, err
	}
	return sample(fp.probs, rng), fp.probs, nil
}

func sample(probs []float64, rng allocation.Source) int {
	u := rng.Float64()
	var cum float64
	for i, pr := range probs {
		cum += pr
		if u < cum {
			return i
		}
	}
	return len(probs) - 1
}

// gradients mirrors Policy.params with accumulated loss gradients.
type gradients []*tensor.Dense

func (p *Policy) zeroGradients() gradients {
	params := p.params()
	g := make(gradients, len(params))
	for i, t := range params {
		g[i] = tensor.New(tensor.WithShape(t.Shape().Clone()...), tensor.Of(tensor.Float64))
	}
	return g
}

// backward adds the gradient of scale·(-log π(action|x)) to g. For a
// softmax output that is scale·(π - onehot(action)) at the logits.
func (p *Policy) backward(fp *pass, action int, scale float64, g gradients) error {
	dz := make([]float64, ActionSize)
	for i, pr := range fp.probs {
		dz[i] = pr * scale
	}
	dz[action] -= scale

	dzt := tensor.New(tensor.WithShape(ActionSize), tensor.WithBacking(dz))
	ht := tensor.New(tensor.WithShape(p.hidden), tensor.WithBacking(fp.h))
	xt := tensor.New(tensor.WithShape(ObservationSize), tensor.WithBacking(fp.x))

	dw2, err := tensor.Outer(ht, dzt)
	if err != nil {
		return fmt.Errorf("output weight grad: %w", err)
	}

	dht, err := tensor.MatVecMul(p.w2, dzt)
	if err != nil {
		return fmt.Errorf("hidden grad: %w", err)
	}
	dh, ok := dht.Data().([]float64)
	if !ok {
		return fmt.Errorf("unexpected tensor data %T", dht.Data())
	}
	dpre := make([]float64, p.hidden)
	for i, v := range dh {
		if fp.pre[i] > 0 {
			dpre[i] = v
		}
	}
	dpret := tensor.New(tensor.WithShape(p.hidden), tensor.WithBacking(dpre))

	dw1, err := tensor.Outer(xt, dpret)
	if err != nil {
		return fmt.Errorf("hidden weight grad: %w", err)
	}

	for i, d := range []tensor.Tensor{dw1, dpret, dw2, dzt} {
		if err := accumulate(g[i], d); err != nil {
			return err
		}
	}
	return nil
}

// accumulate adds d into g in place.
func accumulate(g *tensor.Dense, d tensor.Tensor) error {
	src, ok := d.Data().([]float64)
	if !ok {
		return fmt.Errorf("unexpected tensor data %T", d.Data())
	}
	dst := g.Data().([]float64)
	if len(src) != len(dst) {
		return fmt.Errorf("gradient size %d does not match parameter size %d", len(src), len(dst))
	}
	floats.Add(dst, src)
	return nil
}
