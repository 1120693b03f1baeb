package bot

import (
	"fmt"
	"math/rand/v2"
	"sync"

	gonnx "github.com/advancedclimatesystems/gonnx"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gorgonia.org/tensor"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

// OnnxModelPath locates an exported policy network taking the 3-value
// observation and producing 6 level probabilities. Set at startup from
// ONNX_MODEL_PATH.
var OnnxModelPath string

const (
	onnxInput  = "state"
	onnxOutput = "probs"
)

// newOnnxOrFallback loads the ONNX policy, falling back to RandomStrategy
// when the model cannot be loaded.
func newOnnxOrFallback(rng *rand.Rand) Strategy {
	s, err := newOnnxStrategy(OnnxModelPath, rng)
	if err != nil {
		log.Warn().Err(err).Str("path", OnnxModelPath).Msg("onnx strategy unavailable, falling back to random")
		return &RandomStrategy{rng: rng}
	}
	return s
}

// OnnxStrategy runs an exported 3-input, 6-output policy network with gonnx
// (pure Go ONNX runtime) and plays the most probable level. Inference errors
// fall back to a random level for that period.
type OnnxStrategy struct {
	model    *gonnx.Model
	fallback *RandomStrategy
	mu       sync.Mutex
}

func newOnnxStrategy(path string, rng *rand.Rand) (*OnnxStrategy, error) {
	if path == "" {
		path = "models/policy.onnx"
	}
	model, err := gonnx.NewModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load onnx policy %s: %w", path, err)
	}
	return &OnnxStrategy{model: model, fallback: &RandomStrategy{rng: rng}}, nil
}

func (*OnnxStrategy) Name() string { return "onnx" }

func (s *OnnxStrategy) Choose(obs Observation) int {
	probs, err := s.run(obs.Features)
	if err != nil {
		log.Debug().Err(err).Msg("onnx inference failed, playing random")
		return s.fallback.Choose(obs)
	}
	return floats.MaxIdx(probs)
}

// run feeds one observation through the network and returns the level
// distribution.
func (s *OnnxStrategy) run(features allocation.Observation) ([]float64, error) {
	backing := make([]float32, len(features))
	for i, v := range features {
		backing[i] = float32(v)
	}
	inputs := gonnx.Tensors{
		onnxInput: tensor.New(
			tensor.WithShape(1, len(features)),
			tensor.Of(tensor.Float32),
			tensor.WithBacking(backing),
		),
	}

	s.mu.Lock()
	outputs, err := s.model.Run(inputs)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("policy run: %w", err)
	}

	out, ok := outputs[onnxOutput]
	if !ok {
		// Exporters name the output differently; take the only one there is.
		for _, v := range outputs {
			out = v
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("no output tensor from policy model")
	}

	var probs []float64
	switch d := out.Data().(type) {
	case []float32:
		probs = make([]float64, len(d))
		for i, v := range d {
			probs[i] = float64(v)
		}
	case []float64:
		probs = d
	default:
		return nil, fmt.Errorf("unexpected policy output type %T", d)
	}
	if len(probs) != allocation.NumLevels {
		return nil, fmt.Errorf("policy output has %d values, want %d", len(probs), allocation.NumLevels)
	}
	return probs, nil
}
