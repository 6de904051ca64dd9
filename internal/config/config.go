package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Project-Sylos/Tabula/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a default configuration
func DefaultConfig() types.Config {
	return types.Config{
		Storage: types.StorageConfig{
			Driver: types.DriverDuckDB,
			DBPath: "./tabula.db",
		},
		API: types.APIConfig{
			Host: "localhost",
			Port: 8086,
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Editor: DefaultEditorConfig(),
		Import: types.ImportConfig{
			FetchTimeoutSeconds: 30,
			MaxBytes:            10 << 20,
			ContentTypes:        []string{"text/csv"},
		},
		Seed: types.SeedConfig{
			MaxDepth:   2,
			MinFolders: 1,
			MaxFolders: 2,
			MinFiles:   1,
			MaxFiles:   3,
			Rows:       5,
			Columns:    3,
			Seed:       42,
		},
	}
}

// DefaultEditorConfig returns the defaults for newly created nodes
func DefaultEditorConfig() types.EditorConfig {
	return types.EditorConfig{
		FileName:           "New CSV",
		FolderName:         "New Folder",
		FileContent:        "column1,column2\nvalue1,value2",
		CopySuffix:         " (Copy)",
		SaveTimeoutSeconds: 10,
	}
}

// LoadFromFile loads configuration from a JSON or YAML file.
// The format is chosen by extension; anything that is not .yaml/.yml is read as JSON.
func LoadFromFile(configPath string) (*types.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if isYAML(configPath) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Ensure DB path is absolute
	if cfg.Storage.DBPath != "" && !filepath.IsAbs(cfg.Storage.DBPath) {
		absPath, err := filepath.Abs(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		cfg.Storage.DBPath = absPath
	}

	return &cfg, nil
}

func applyDefaults(cfg *types.Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = types.DriverDuckDB
	}
	if cfg.API.Host == "" {
		cfg.API.Host = "localhost"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8086
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Editor.SaveTimeoutSeconds == 0 {
		cfg.Editor.SaveTimeoutSeconds = 10
	}
	if len(cfg.Import.ContentTypes) == 0 {
		cfg.Import.ContentTypes = []string{"text/csv"}
	}
	if cfg.Import.FetchTimeoutSeconds == 0 {
		cfg.Import.FetchTimeoutSeconds = 30
	}
	if cfg.Import.MaxBytes == 0 {
		cfg.Import.MaxBytes = 10 << 20
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Validate checks that the configuration parameters are valid
func Validate(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch cfg.Storage.Driver {
	case types.DriverDuckDB:
	case types.DriverBolt:
		if cfg.Storage.DBPath == "" {
			return fmt.Errorf("bolt storage requires a db_path")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535, got %d", cfg.API.Port)
	}

	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging format must be json or console, got %q", cfg.Logging.Format)
	}

	if cfg.Editor.SaveTimeoutSeconds < 0 {
		return fmt.Errorf("save_timeout_seconds must be non-negative, got %d", cfg.Editor.SaveTimeoutSeconds)
	}

	if cfg.Import.MaxBytes < 0 {
		return fmt.Errorf("import max_bytes must be non-negative, got %d", cfg.Import.MaxBytes)
	}

	// Validate seed config
	if cfg.Seed.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", cfg.Seed.MaxDepth)
	}
	if cfg.Seed.MinFolders < 0 {
		return fmt.Errorf("min_folders must be non-negative, got %d", cfg.Seed.MinFolders)
	}
	if cfg.Seed.MaxFolders < cfg.Seed.MinFolders {
		return fmt.Errorf("max_folders (%d) must be >= min_folders (%d)", cfg.Seed.MaxFolders, cfg.Seed.MinFolders)
	}
	if cfg.Seed.MinFiles < 0 {
		return fmt.Errorf("min_files must be non-negative, got %d", cfg.Seed.MinFiles)
	}
	if cfg.Seed.MaxFiles < cfg.Seed.MinFiles {
		return fmt.Errorf("max_files (%d) must be >= min_files (%d)", cfg.Seed.MaxFiles, cfg.Seed.MinFiles)
	}
	if cfg.Seed.Rows < 0 || cfg.Seed.Columns < 1 {
		return fmt.Errorf("seed needs rows >= 0 and columns >= 1, got rows=%d columns=%d", cfg.Seed.Rows, cfg.Seed.Columns)
	}

	return nil
}

// SaveToFile saves configuration to a JSON or YAML file
func SaveToFile(cfg *types.Config, configPath string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(configPath) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
