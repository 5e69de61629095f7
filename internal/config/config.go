// Package config loads runtime configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quorumlabs/quorum-genkit"
)

// ModelConfig selects the generation backend.
type ModelConfig struct {
	// Name is the fully qualified model name, e.g. "googleai/gemini-2.0-flash".
	Name string `yaml:"name"`

	// APIKeyEnv names the environment variable holding the backend API key.
	APIKeyEnv string `yaml:"api_key_env"`
}

// SolveConfig tunes the orchestration loop.
type SolveConfig struct {
	MaxSolverCount        int     `yaml:"max_solver_count"`
	VerificationThreshold float64 `yaml:"verification_threshold"`
	MaxRounds             int     `yaml:"max_rounds"`
	EnableEarlyStop       *bool   `yaml:"enable_early_stop"`
	TimeoutSeconds        int     `yaml:"timeout_seconds"`
}

// EventBusConfig tunes the event dispatch system.
type EventBusConfig struct {
	Enabled     *bool `yaml:"enabled"`
	BufferSize  int   `yaml:"buffer_size"`
	WorkerCount int   `yaml:"worker_count"`
}

// CacheConfig tunes the plan cache.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`

	// FilePath, when set, enables the file-backed persistent cache instead of
	// the in-memory one.
	FilePath string `yaml:"file_path"`
}

// DatabaseConfig enables the sql_reader tool.
type DatabaseConfig struct {
	// URLEnv names the environment variable holding the Postgres URL.
	// Empty disables the sql_reader tool.
	URLEnv string `yaml:"url_env"`
}

// File is the top-level YAML configuration document.
type File struct {
	Model    ModelConfig    `yaml:"model"`
	Solve    SolveConfig    `yaml:"solve"`
	EventBus EventBusConfig `yaml:"event_bus"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
}

// Load reads and validates a YAML config file. Missing fields fall back to
// the runtime defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

// Validate checks field ranges without filling defaults.
func (f *File) Validate() error {
	if f.Solve.MaxSolverCount < 0 {
		return fmt.Errorf("solve.max_solver_count must not be negative")
	}
	if f.Solve.MaxRounds < 0 {
		return fmt.Errorf("solve.max_rounds must not be negative")
	}
	if f.Solve.VerificationThreshold < 0 || f.Solve.VerificationThreshold > 1 {
		return fmt.Errorf("solve.verification_threshold must be in [0, 1]")
	}
	if f.Solve.TimeoutSeconds < 0 {
		return fmt.Errorf("solve.timeout_seconds must not be negative")
	}
	return nil
}

// ToRuntimeConfig converts the file into a quorum.Config, applying defaults
// for unset fields.
func (f *File) ToRuntimeConfig() quorum.Config {
	cfg := quorum.DefaultConfig()

	if f.Solve.MaxSolverCount > 0 {
		cfg.MaxSolverCount = f.Solve.MaxSolverCount
	}
	if f.Solve.VerificationThreshold > 0 {
		cfg.VerificationThreshold = f.Solve.VerificationThreshold
	}
	if f.Solve.MaxRounds > 0 {
		cfg.MaxRounds = f.Solve.MaxRounds
	}
	if f.Solve.EnableEarlyStop != nil {
		cfg.EnableEarlyStop = *f.Solve.EnableEarlyStop
	}
	if f.Solve.TimeoutSeconds > 0 {
		cfg.SolveTimeout = time.Duration(f.Solve.TimeoutSeconds) * time.Second
	}

	if f.EventBus.Enabled != nil {
		cfg.EnableEventBus = *f.EventBus.Enabled
	}
	if f.EventBus.BufferSize > 0 {
		cfg.EventBusBufferSize = f.EventBus.BufferSize
	}
	if f.EventBus.WorkerCount > 0 {
		cfg.EventBusWorkerCount = f.EventBus.WorkerCount
	}

	return cfg
}

// CacheTTL returns the configured plan cache TTL.
func (f *File) CacheTTL() time.Duration {
	if f.Cache.TTLMinutes > 0 {
		return time.Duration(f.Cache.TTLMinutes) * time.Minute
	}
	return 10 * time.Minute
}
