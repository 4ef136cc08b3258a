package transition

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds executor settings read from the environment.
type Config struct {
	Metrics       bool `env:"TRANSITION_METRICS"        envDefault:"true" json:"metrics"       yaml:"metrics"`
	Tracing       bool `env:"TRANSITION_TRACING"        envDefault:"true" json:"tracing"       yaml:"tracing"`
	Logging       bool `env:"TRANSITION_LOG"            envDefault:"true" json:"logging"       yaml:"logging"`
	FanoutWorkers int  `env:"TRANSITION_FANOUT_WORKERS" envDefault:"8"    json:"fanoutWorkers" yaml:"fanoutWorkers"`
}

// DefaultConfig returns the configuration used when no environment
// variables are set.
func DefaultConfig() Config {
	return Config{
		Metrics:       true,
		Tracing:       true,
		Logging:       true,
		FanoutWorkers: defaultFanoutWorkers,
	}
}

// LoadConfig reads Config from TRANSITION_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse transition config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.FanoutWorkers <= 0 {
		return fmt.Errorf("%w: fanout workers must be positive, got %d", ErrInvalidConfig, c.FanoutWorkers)
	}

	return nil
}

// NewExecutorFromConfig creates an executor from cfg. Options are applied
// after the config, so they take precedence.
func NewExecutorFromConfig[S comparable](cfg Config, opts ...Option[S]) *Executor[S] {
	base := []Option[S]{
		WithMetrics[S](cfg.Metrics),
		WithTracing[S](cfg.Tracing),
		WithFanoutWorkers[S](cfg.FanoutWorkers),
	}

	if !cfg.Logging {
		base = append(base, WithLogger[S](NopLogger{}))
	}

	return NewExecutor(append(base, opts...)...)
}
