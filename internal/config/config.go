// Package config loads pmsched settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for a pmsched run.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Engine     EngineConfig     `yaml:"engine"`
	Baseline   BaselineConfig   `yaml:"baseline"`
	Simulation SimulationConfig `yaml:"simulation"`
	Viewer     ViewerConfig     `yaml:"viewer"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// EngineConfig bounds a single calculation. Zero disables a limit.
type EngineConfig struct {
	MaxActivities    int           `yaml:"max_activities" validate:"gte=0"`
	CalculateTimeout time.Duration `yaml:"calculate_timeout" validate:"gte=0"`
}

type BaselineConfig struct {
	Dir string `yaml:"dir" validate:"required"`
}

type SimulationConfig struct {
	Iterations int    `yaml:"iterations" validate:"gte=1,lte=1000000"`
	Workers    int    `yaml:"workers" validate:"gte=1,lte=256"`
	Seed       uint64 `yaml:"seed"`
}

type ViewerConfig struct {
	Port int `yaml:"port" validate:"gte=1,lte=65535"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Engine: EngineConfig{MaxActivities: 50000, CalculateTimeout: 5 * time.Second},
		Baseline: BaselineConfig{
			Dir: ".pmsched/baselines",
		},
		Simulation: SimulationConfig{Iterations: 1000, Workers: 4, Seed: 1},
		Viewer:     ViewerConfig{Port: 7171},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
