package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/freeeve/allocation-game/internal/bot/neural"
	"github.com/freeeve/allocation-game/internal/config"
	"github.com/freeeve/allocation-game/internal/logger"
	redisrepo "github.com/freeeve/allocation-game/internal/repository/redis"
	"github.com/freeeve/allocation-game/internal/service"
	"github.com/freeeve/allocation-game/internal/session"
)

func main() {
	def := neural.DefaultTrainerConfig()
	var (
		episodes   int
		hidden     int
		lr         float64
		gamma      float64
		maxPeriods int
		printEvery int
		seed       uint64
		configPath string
		runID      string
		useRedis   bool
		evaluate   bool
	)
	flag.IntVar(&episodes, "episodes", 10000, "Training episodes")
	flag.IntVar(&hidden, "hidden", def.Hidden, "Hidden layer width")
	flag.Float64Var(&lr, "lr", def.LearningRate, "Adam learning rate")
	flag.Float64Var(&gamma, "gamma", def.Gamma, "Return discount")
	flag.IntVar(&maxPeriods, "max-periods", def.Engine.MaxPeriods, "Game length per training episode")
	flag.IntVar(&printEvery, "print-every", 10, "Report progress every N episodes")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 = random)")
	flag.StringVar(&configPath, "config", "", "YAML config file (overrides env)")
	flag.StringVar(&runID, "run-id", "", "Run ID for the progress cache (default: new UUID)")
	flag.BoolVar(&useRedis, "redis", false, "Publish progress to REDIS_URL")
	flag.BoolVar(&evaluate, "evaluate", true, "Play one evaluation game after training")
	flag.Parse()

	logger.Init(zerolog.InfoLevel)

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	tc := neural.TrainerConfig{
		Hidden:       hidden,
		LearningRate: lr,
		Gamma:        gamma,
		MaxSteps:     neural.DefaultMaxSteps,
		Engine:       cfg.Engine,
		Seed:         seed,
	}
	tc.Engine.MaxPeriods = maxPeriods

	trainer, err := neural.NewTrainer(tc)
	if err != nil {
		log.Fatal().Err(err).Msg("Trainer setup failed")
	}

	if runID == "" {
		runID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	// A nil cache keeps progress in the log only.
	progress := service.NewTrainingService(nil, runID, episodes)
	if useRedis {
		if cfg.RedisURL == "" {
			log.Fatal().Msg("-redis requires REDIS_URL")
		}
		cache, err := redisrepo.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer cache.Close()
		progress = service.NewTrainingService(cache, runID, episodes)
	}

	log.Info().
		Str("runId", runID).
		Int("episodes", episodes).
		Int("hidden", trainer.Policy().Hidden()).
		Float64("lr", lr).
		Float64("gamma", gamma).
		Int("maxPeriods", maxPeriods).
		Msg("Training started")

	err = trainer.Train(ctx, episodes, printEvery, progress.Hook(ctx))
	interrupted := stopped(err)
	if err != nil && !interrupted {
		log.Fatal().Err(err).Msg("Training failed")
	}
	stats := trainer.Stats()
	ev := log.Info().
		Int("episodes", stats.Len()).
		Float64("averageScore", stats.Average()).
		Bool("interrupted", interrupted)
	if scores := stats.Scores(); len(scores) > 0 {
		ev = ev.Float64("bestScore", floats.Max(scores))
	}
	ev.Msg("Training finished")

	if !evaluate || interrupted {
		return
	}
	s, err := trainer.Evaluate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
	printEvaluation(s)
}

// stopped reports whether err is a requested shutdown rather than a
// training failure.
func stopped(err error) bool {
	return errors.Is(err, context.Canceled)
}

func printEvaluation(s *session.Session) {
	sum := s.Summary()
	fmt.Printf("\nEvaluation game (%d periods, converged %v):\n", sum.Periods, sum.Converged)
	fmt.Printf("  avg agent reward:     %.2f\n", sum.AvgReward)
	fmt.Printf("  efficiency:           %.2f\n", sum.AvgEfficiency)
	fmt.Printf("  avg contribution H:   %.2f\n", sum.AvgContributionHigh)
	fmt.Printf("  avg contribution L:   %.2f\n", sum.AvgContributionLow)
}
