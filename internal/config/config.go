package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Storage backends for uploaded export files.
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config represents the top-level moneta.yaml configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	ImportDir string          `yaml:"import_dir"`
	Storage   StorageConfig   `yaml:"storage"`
	Accounts  []AccountConfig `yaml:"accounts,omitempty"`
}

// StorageConfig selects where uploaded export files are kept.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket,omitempty"` // required for the gcs backend
}

// AccountConfig maps a bank export source to a ledger account.
type AccountConfig struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	SourceKey string `yaml:"source_key"`
}

// DatabasePath returns the bolt database location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "moneta.db")
}

// Load reads a moneta.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.ImportDir == "" {
		cfg.ImportDir = "imports"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageLocal
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		DataDir:   "data",
		ImportDir: "imports",
		Storage:   StorageConfig{Backend: StorageLocal},
		Accounts: []AccountConfig{
			{ID: "checking", Name: "Checking", Type: "checking", SourceKey: "boursorama"},
		},
	}
}
