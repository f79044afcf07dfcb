package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig is the full CLI/run configuration. Flags override whatever the
// optional YAML file sets; both fall back to the service defaults.
type RunConfig struct {
	DataPath string `yaml:"data_path"`
	ModelDir string `yaml:"model_dir"`

	Backtest BacktestConfig `yaml:"backtest"`

	WindowSize int     `yaml:"window_size"`
	TrainRatio float64 `yaml:"train_ratio"`

	DashboardPort int  `yaml:"dashboard_port"`
	TUI           bool `yaml:"tui"`
}

// DefaultRunConfig mirrors the deployment defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Backtest:   DefaultBacktestConfig(),
		WindowSize: 64,
		TrainRatio: defaultTrainRatio,
	}
}

// LoadRunConfig reads a YAML config file over the defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts not already covered by BacktestConfig.
func (c RunConfig) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size %d must be positive", ErrConfiguration, c.WindowSize)
	}
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return fmt.Errorf("%w: train ratio %.4f must be in (0, 1)", ErrConfiguration, c.TrainRatio)
	}
	return nil
}
