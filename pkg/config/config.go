// Package config provides configuration management using Viper.
//
// Loads and validates configuration from YAML files with support for
// multiple config locations and default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Profile  string         `mapstructure:"profile"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Indexer  IndexerConfig  `mapstructure:"indexer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// MemoryConfig holds the location and backup policy of the knowledge store.
type MemoryConfig struct {
	// Path is <MEMORY_PATH>: the base directory containing .memory/.
	Path           string        `mapstructure:"path"`
	BackupInterval time.Duration `mapstructure:"backup_interval"`
	MaxBackups     int           `mapstructure:"max_backups"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

// IndexerConfig holds the relationship-detection settings. Only
// AutoCreateRelations is read (the CLI passes it to the Orchestrator);
// PollInterval, SimilarityThreshold and AutoRelationThreshold are loaded
// and validated, but the indexer and the similarity engine use their own
// fixed constants.
type IndexerConfig struct {
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	AutoCreateRelations    bool          `mapstructure:"auto_create_relations"`
	SimilarityThreshold    float64       `mapstructure:"similarity_threshold"`
	AutoRelationThreshold  float64       `mapstructure:"auto_relation_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console, json
}

// DefaultConfig returns configuration with the documented defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".branchgraph")

	return &Config{
		Profile: "default",
		Memory: MemoryConfig{
			Path:           configDir,
			BackupInterval: 24 * time.Hour,
			MaxBackups:     5,
			AutoMigrate:    true,
		},
		Indexer: IndexerConfig{
			PollInterval:          2 * time.Second,
			AutoCreateRelations:   true,
			SimilarityThreshold:   0.5,
			AutoRelationThreshold: 0.78,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from YAML file with fallback to defaults.
// Searches in multiple locations:
// 1. ./config.yaml (current directory)
// 2. ~/.branchgraph/config.yaml (user home)
// 3. /etc/branchgraph/config.yaml (system-wide)
//
// MEMORY_PATH and LOG_LEVEL environment variables override file/default
// values, per the external interface in SPEC_FULL.md §6.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	homeDir, _ := os.UserHomeDir()
	v.AddConfigPath(filepath.Join(homeDir, ".branchgraph"))
	v.AddConfigPath("/etc/branchgraph")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := DefaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays MEMORY_PATH and LOG_LEVEL on top of file/default values.
func applyEnv(cfg *Config) {
	if p := os.Getenv("MEMORY_PATH"); p != "" {
		cfg.Memory.Path = p
	}
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		cfg.Logging.Level = l
	}
}

// setDefaults sets default values in Viper.
func setDefaults(v *viper.Viper) {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".branchgraph")

	v.SetDefault("profile", "default")
	v.SetDefault("memory.path", configDir)
	v.SetDefault("memory.backup_interval", "24h")
	v.SetDefault("memory.max_backups", 5)
	v.SetDefault("memory.auto_migrate", true)

	v.SetDefault("indexer.poll_interval", "2s")
	v.SetDefault("indexer.auto_create_relations", true)
	v.SetDefault("indexer.similarity_threshold", 0.5)
	v.SetDefault("indexer.auto_relation_threshold", 0.78)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Memory.Path == "" {
		return fmt.Errorf("memory.path is required")
	}
	if c.Memory.MaxBackups < 0 {
		return fmt.Errorf("memory.max_backups must be >= 0")
	}

	if c.Indexer.PollInterval <= 0 {
		return fmt.Errorf("indexer.poll_interval must be > 0")
	}
	if c.Indexer.SimilarityThreshold < 0 || c.Indexer.SimilarityThreshold > 1 {
		return fmt.Errorf("indexer.similarity_threshold must be in [0,1]")
	}
	if c.Indexer.AutoRelationThreshold < 0 || c.Indexer.AutoRelationThreshold > 1 {
		return fmt.Errorf("indexer.auto_relation_threshold must be in [0,1]")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "fatal": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal")
	}

	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	return nil
}

// EnsureMemoryDir creates the <MEMORY_PATH>/.memory and backups directories
// if they don't exist.
func (c *Config) EnsureMemoryDir() error {
	if err := os.MkdirAll(c.DotMemoryDir(), 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}
	if err := os.MkdirAll(c.BackupsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create backups directory: %w", err)
	}
	return nil
}

// DotMemoryDir returns <MEMORY_PATH>/.memory.
func (c *Config) DotMemoryDir() string {
	return filepath.Join(c.Memory.Path, ".memory")
}

// BackupsDir returns <MEMORY_PATH>/.memory/backups.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.DotMemoryDir(), "backups")
}

// DatabasePath returns <MEMORY_PATH>/.memory/memory.db.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DotMemoryDir(), "memory.db")
}

// ConfigPath returns the path to the configuration directory.
func ConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".branchgraph")
}
