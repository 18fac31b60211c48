// Package config handles reading and writing .fathom/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fathom-dev/fathom/internal/charter"
)

// Config is the top-level structure for .fathom/config.yaml.
type Config struct {
	Version    int                          `yaml:"version"`
	Project    ProjectConfig                `yaml:"project"`
	Model      ModelConfig                  `yaml:"model"`
	Interview  InterviewConfig              `yaml:"interview"`
	Governance charter.GovernanceThresholds `yaml:"governance"`
	Storage    StorageConfig                `yaml:"storage"`
}

// ProjectConfig holds project metadata supplied during init.
type ProjectConfig struct {
	Name  string `yaml:"name"`
	Owner string `yaml:"owner"`
}

// ModelConfig controls the LLM completion backend.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// InterviewConfig controls the quality loop.
type InterviewConfig struct {
	QualityThreshold  int `yaml:"quality_threshold"`  // 0-10, answers at or above pass
	MaxAttempts       int `yaml:"max_attempts"`       // retries before escalation
	CallTimeout       int `yaml:"call_timeout"`       // seconds, per external call
	CheckpointRetries int `yaml:"checkpoint_retries"` // store write attempts before fatal
}

// StorageConfig selects and configures the session store backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`                // "sqlite" | "postgres"
	Path        string `yaml:"path,omitempty"`         // sqlite database file
	DatabaseURL string `yaml:"database_url,omitempty"` // postgres connection string
}

const configDir = ".fathom"
const configFile = "config.yaml"

// ReadConfig reads .fathom/config.yaml from the given project directory.
// dir is the project root (not .fathom/ itself).
// Returns an error if the file is not found, the YAML is malformed, or the
// governance thresholds are not monotone.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configDir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WriteConfig writes cfg to .fathom/config.yaml in the given project directory.
// Creates the .fathom/ directory if it does not exist.
func WriteConfig(dir string, cfg *Config) error {
	dirPath := filepath.Join(dir, configDir)
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dirPath, configFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks constraints that would break the session core at runtime.
func (c *Config) Validate() error {
	if err := c.Governance.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if c.Interview.QualityThreshold < 0 || c.Interview.QualityThreshold > 10 {
		return fmt.Errorf("validating config: quality_threshold must be 0-10, got %d", c.Interview.QualityThreshold)
	}
	if c.Interview.MaxAttempts < 1 {
		return fmt.Errorf("validating config: max_attempts must be at least 1, got %d", c.Interview.MaxAttempts)
	}
	switch c.Storage.Backend {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("validating config: unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Model: ModelConfig{
			Name:        "gemini-2.5-flash",
			MaxTokens:   1024,
			Temperature: 0.4,
		},
		Interview: InterviewConfig{
			QualityThreshold:  7,
			MaxAttempts:       3,
			CallTimeout:       30,
			CheckpointRetries: 3,
		},
		Governance: charter.DefaultGovernanceThresholds(),
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(configDir, "sessions.db"),
		},
	}
}
