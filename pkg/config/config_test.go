package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Memory.MaxBackups != 5 {
		t.Errorf("Expected MaxBackups=5, got %d", cfg.Memory.MaxBackups)
	}
	if cfg.Memory.BackupInterval != 24*time.Hour {
		t.Errorf("Expected BackupInterval=24h, got %v", cfg.Memory.BackupInterval)
	}
	if !cfg.Memory.AutoMigrate {
		t.Error("Expected AutoMigrate=true")
	}

	if cfg.Indexer.PollInterval != 2*time.Second {
		t.Errorf("Expected PollInterval=2s, got %v", cfg.Indexer.PollInterval)
	}
	if !cfg.Indexer.AutoCreateRelations {
		t.Error("Expected AutoCreateRelations=true")
	}
	if cfg.Indexer.SimilarityThreshold != 0.5 {
		t.Errorf("Expected SimilarityThreshold=0.5, got %v", cfg.Indexer.SimilarityThreshold)
	}
	if cfg.Indexer.AutoRelationThreshold != 0.78 {
		t.Errorf("Expected AutoRelationThreshold=0.78, got %v", cfg.Indexer.AutoRelationThreshold)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected Level=info, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		expectErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty memory path", func(c *Config) { c.Memory.Path = "" }, true},
		{"negative max backups", func(c *Config) { c.Memory.MaxBackups = -1 }, true},
		{"zero poll interval", func(c *Config) { c.Indexer.PollInterval = 0 }, true},
		{"similarity threshold too high", func(c *Config) { c.Indexer.SimilarityThreshold = 1.5 }, true},
		{"auto relation threshold negative", func(c *Config) { c.Indexer.AutoRelationThreshold = -0.1 }, true},
		{"invalid logging level", func(c *Config) { c.Logging.Level = "invalid" }, true},
		{"invalid logging format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.expectErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", oldHome)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error with missing config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected config, got nil")
	}
	if cfg.Indexer.AutoRelationThreshold != 0.78 {
		t.Errorf("Expected default auto-relation threshold 0.78, got %v", cfg.Indexer.AutoRelationThreshold)
	}
}

func TestLoadConfig_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
profile: test
memory:
  path: /tmp/branchgraph-test
  backup_interval: 12h
  max_backups: 3
  auto_migrate: false
indexer:
  poll_interval: 5s
  auto_create_relations: false
  similarity_threshold: 0.6
  auto_relation_threshold: 0.8
logging:
  level: debug
  format: json
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd) //nolint:errcheck
	_ = os.Chdir(tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Profile != "test" {
		t.Errorf("Expected profile=test, got %s", cfg.Profile)
	}
	if cfg.Memory.Path != "/tmp/branchgraph-test" {
		t.Errorf("Expected memory path=/tmp/branchgraph-test, got %s", cfg.Memory.Path)
	}
	if cfg.Memory.MaxBackups != 3 {
		t.Errorf("Expected max_backups=3, got %d", cfg.Memory.MaxBackups)
	}
	if cfg.Indexer.AutoCreateRelations {
		t.Error("Expected auto_create_relations=false, got true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level=debug, got %s", cfg.Logging.Level)
	}
}

func TestEnsureMemoryDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{
		Memory: MemoryConfig{
			Path: filepath.Join(tmpDir, "subdir"),
		},
	}

	if err := cfg.EnsureMemoryDir(); err != nil {
		t.Fatalf("EnsureMemoryDir failed: %v", err)
	}

	if _, err := os.Stat(cfg.BackupsDir()); os.IsNotExist(err) {
		t.Error("Backups directory was not created")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}

	homeDir, _ := os.UserHomeDir()
	expected := filepath.Join(homeDir, ".branchgraph")
	if path != expected {
		t.Errorf("Expected %s, got %s", expected, path)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory.Path = "/tmp/branchgraph-test"
	path := cfg.DatabasePath()

	if filepath.Base(path) != "memory.db" {
		t.Errorf("Expected database file named memory.db, got %s", filepath.Base(path))
	}
	if filepath.Base(filepath.Dir(path)) != ".memory" {
		t.Errorf("Expected database file under .memory/, got %s", path)
	}
}
