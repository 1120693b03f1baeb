package bot

import (
	"testing"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

func TestStrategyForName(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"random", "random", false},
		{"titfortat", "titfortat", false},
		{"threshold", "threshold", false},
		{"fixed:0", "fixed:0", false},
		{"fixed:5", "fixed:5", false},
		{"fixed:6", "", true},
		{"fixed:-1", "", true},
		{"fixed:x", "", true},
		{"greedy", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StrategyForName(tt.name, newRng(1))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got strategy %q", s.Name())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Name() != tt.wantName {
				t.Errorf("name = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}

func TestStrategiesReturnValidLevels(t *testing.T) {
	rng := newRng(7)
	for _, name := range []string{"random", "titfortat", "threshold", "fixed:3"} {
		s, err := StrategyForName(name, rng)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		obs := Observation{}
		for i := 0; i < 200; i++ {
			level := s.Choose(obs)
			if allocation.ValidateLevel(level) != nil {
				t.Fatalf("%s chose invalid level %d", name, level)
			}
			obs = Observation{Period: i + 1, AgentLevel: rng.IntN(allocation.NumLevels), OwnLevel: level}
		}
	}
}

func TestTitForTat(t *testing.T) {
	s := &TitForTatStrategy{Opening: 2}
	if got := s.Choose(Observation{}); got != 2 {
		t.Errorf("opening = %d, want 2", got)
	}
	for agent := 0; agent < allocation.NumLevels; agent++ {
		if got := s.Choose(Observation{Period: 3, AgentLevel: agent}); got != agent {
			t.Errorf("after agent %d chose %d", agent, got)
		}
	}
}

func TestThreshold(t *testing.T) {
	want := []int{4, 3, 2, 1, 0, 0}
	for agent, w := range want {
		got := ThresholdStrategy{}.Choose(Observation{Period: 1, AgentLevel: agent})
		if got != w {
			t.Errorf("agent level %d: got %d, want %d", agent, got, w)
		}
		if agent < 4 && allocation.JointBonus(allocation.Levels[agent], allocation.Levels[got]) != allocation.Bonus {
			t.Errorf("agent level %d: response %d misses the bonus", agent, got)
		}
	}
	if got := (ThresholdStrategy{}).Choose(Observation{Period: 1, AgentLevel: 7}); got != 0 {
		t.Errorf("out-of-range agent level: got %d, want 0", got)
	}
}

func TestRandomStrategyDeterministicWithSeed(t *testing.T) {
	a := &RandomStrategy{rng: newRng(42)}
	b := &RandomStrategy{rng: newRng(42)}
	for i := 0; i < 50; i++ {
		if x, y := a.Choose(Observation{}), b.Choose(Observation{}); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestObserveFromAgentSeat(t *testing.T) {
	out := allocation.Outcome{
		Role:             allocation.RoleLow,
		ContributionLow:  4,
		ContributionHigh: 6,
		AgentLevel:       2,
		OwnPayoff:        21,
		OtherPayoff:      7,
		Period:           3,
		Kindness:         0.2,
	}
	obs := observe(out)
	if obs.Period != 3 || obs.AgentLevel != 2 || obs.OwnLevel != 3 {
		t.Errorf("unexpected levels: %+v", obs)
	}
	if obs.OwnPayoff != 7 || obs.AgentPayoff != 21 {
		t.Errorf("payoffs swapped: %+v", obs)
	}
	if obs.Features != out.Observation() {
		t.Errorf("features = %v, want %v", obs.Features, out.Observation())
	}
	if obs.First() {
		t.Error("observation after period 3 is not the first")
	}
}
