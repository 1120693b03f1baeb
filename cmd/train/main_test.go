package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/freeeve/allocation-game/internal/bot/neural"
)

func TestStoppedOnCancel(t *testing.T) {
	cfg := neural.DefaultTrainerConfig()
	cfg.Engine.MaxPeriods = 10
	cfg.Seed = 3
	trainer, err := neural.NewTrainer(cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = trainer.Train(ctx, 5, 1, nil)
	if err == nil {
		t.Fatal("expected cancelled training to return an error")
	}
	if !stopped(err) {
		t.Errorf("stopped(%v) = false, want true", err)
	}
	if trainer.Stats().Len() != 0 {
		t.Errorf("cancelled before the first episode, got %d episodes", trainer.Stats().Len())
	}
}

func TestStopped(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, true},
		{"wrapped canceled", fmt.Errorf("episode 3: %w", context.Canceled), true},
		{"failure", errors.New("hidden layer: shape mismatch"), false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stopped(tt.err); got != tt.want {
				t.Errorf("stopped(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
