package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/allocation-game/internal/config"
	"github.com/freeeve/allocation-game/internal/logger"
	"github.com/freeeve/allocation-game/internal/repository/postgres"
	redisrepo "github.com/freeeve/allocation-game/internal/repository/redis"
	"github.com/freeeve/allocation-game/internal/service"
)

func main() {
	logger.Init(zerolog.WarnLevel)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}

	a := newApp(os.Stdout)
	a.episodes = func() (*service.EpisodeService, func(), error) {
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is not set")
		}
		db, err := postgres.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return service.NewEpisodeService(postgres.NewEpisodeRepo(db)), func() { db.Close() }, nil
	}
	a.training = func(runID string) (*service.TrainingService, func(), error) {
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("REDIS_URL is not set")
		}
		client, err := redisrepo.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return service.NewTrainingService(client, runID, 0), func() { client.Close() }, nil
	}

	if err := a.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
