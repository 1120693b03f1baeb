package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/allocation-game/pkg/allocation"
)

// Config holds application configuration loaded from environment variables
// and, optionally, a YAML file.
type Config struct {
	DatabaseURL   string            `yaml:"database_url"`
	RedisURL      string            `yaml:"redis_url"`
	OnnxModelPath string            `yaml:"onnx_model_path"`
	Engine        allocation.Config `yaml:"engine"`
}

// Load reads configuration from environment variables with sensible defaults.
// Persistence is disabled unless DATABASE_URL or REDIS_URL is set.
func Load() (*Config, error) {
	def := allocation.DefaultConfig()
	var errs []error

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		OnnxModelPath: envOrDefault("ONNX_MODEL_PATH", "models/policy.onnx"),
		Engine: allocation.Config{
			Alpha0:             envFloat("ALPHA0", def.Alpha0, &errs),
			Decay:              envFloat("DECAY", def.Decay, &errs),
			GammaQ:             envFloat("GAMMA_Q", def.GammaQ, &errs),
			ExplorationPeriods: envInt("EXPLORATION_PERIODS", def.ExplorationPeriods, &errs),
			MaxPeriods:         envInt("MAX_PERIODS", def.MaxPeriods, &errs),
			Sensitivity:        envFloat("SENSITIVITY", def.Sensitivity, &errs),
			Role:               allocation.Role(envOrDefault("PLAYER_TYPE", string(def.Role))),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads the environment configuration, overlays the fields
// present in the YAML file at path and validates the engine settings.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func envInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}
