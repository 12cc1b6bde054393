package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
)

// Config holds all simulator and service settings, populated from environment variables.
type Config struct {
	DurationHours int
	Seed          int64
	StartTime     time.Time // zero means "now, truncated to the hour"
	GrowthFactor  float64
	Interval      time.Duration
	OutputPath    string
	ZonesFile     string

	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaEventsTopic string
	KafkaAlertsTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides is Load with values from overrides taking precedence over
// the environment. Keys are environment variable names. Overridden variables
// are never parsed from the environment.
func LoadWithOverrides(overrides map[string]string) (*Config, error) {
	env := func(key, def string) string {
		if v, ok := overrides[key]; ok {
			return v
		}
		return sharedcfg.EnvOrDefault(key, def)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	duration, err := strconv.Atoi(env("SIM_DURATION_HOURS", strconv.Itoa(domain.DefaultDurationHours)))
	if err != nil {
		return nil, fmt.Errorf("invalid SIM_DURATION_HOURS: %w", err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("SIM_DURATION_HOURS: %w", &domain.InvalidDurationError{Hours: duration})
	}

	seed, err := domain.ParseSeed(env("SIM_SEED", "42"))
	if err != nil {
		return nil, fmt.Errorf("SIM_SEED: %w", err)
	}

	var start time.Time
	if s := env("SIM_START_TIME", ""); s != "" {
		start, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid SIM_START_TIME: %w", err)
		}
	}

	growth, err := strconv.ParseFloat(env("SIM_GROWTH_FACTOR", "1.15"), 64)
	if err != nil || !(growth > 0) {
		return nil, errors.New("invalid SIM_GROWTH_FACTOR: must be a positive number")
	}

	interval, err := time.ParseDuration(env("SIM_INTERVAL", "5m"))
	if err != nil || interval <= 0 {
		return nil, errors.New("invalid SIM_INTERVAL")
	}

	cfg := &Config{
		DurationHours: duration,
		Seed:          seed,
		StartTime:     start,
		GrowthFactor:  growth,
		Interval:      interval,
		OutputPath:    env("OUTPUT_PATH", "simulated_outbreak.json"),
		ZonesFile:     env("ZONES_FILE", ""),

		KafkaEnabled:     env("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(env("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: env("KAFKA_EVENTS_TOPIC", "surveillance-events"),
		KafkaAlertsTopic: env("KAFKA_ALERTS_TOPIC", "outbreak-alerts"),

		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		LogLevel:        env("LOG_LEVEL", "info"),
		LogFormat:       env("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaEventsTopic == "" || cfg.KafkaAlertsTopic == "" {
			return nil, errors.New("KAFKA_EVENTS_TOPIC and KAFKA_ALERTS_TOPIC are required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

// GeneratorParams converts the simulation settings into generator parameters.
// A zero StartTime is passed through; the simulator resolves it against its clock.
func (c *Config) GeneratorParams() domain.GeneratorParams {
	p := domain.DefaultGeneratorParams(c.StartTime, c.Seed)
	p.DurationHours = c.DurationHours
	p.GrowthFactor = c.GrowthFactor
	return p
}
