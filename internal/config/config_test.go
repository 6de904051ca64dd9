package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Project-Sylos/Tabula/internal/types"
)

// TestLoadFromFile tests the LoadFromFile function
func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configPath  string
		expectError bool
		setup       func() string // Returns temp config path
		cleanup     func(string)
		validate    func(*testing.T, *types.Config)
	}{
		{
			name:        "valid JSON config",
			expectError: false,
			setup: func() string {
				tmpFile, err := os.CreateTemp("", "tabula-config-*.json")
				if err != nil {
					t.Fatal(err)
				}
				tmpFile.WriteString(`{
					"storage": {
						"driver": "duckdb",
						"db_path": "./tabula.db"
					},
					"api": {
						"host": "localhost",
						"port": 8086
					},
					"editor": {
						"file_name": "Sheet"
					}
				}`)
				tmpFile.Close()
				return tmpFile.Name()
			},
			cleanup: func(path string) {
				os.Remove(path)
			},
			validate: func(t *testing.T, cfg *types.Config) {
				if cfg.Storage.Driver != types.DriverDuckDB {
					t.Errorf("Expected duckdb driver, got %s", cfg.Storage.Driver)
				}
				if !filepath.IsAbs(cfg.Storage.DBPath) {
					t.Errorf("Expected absolute DB path, got %s", cfg.Storage.DBPath)
				}
				if cfg.Editor.FileName != "Sheet" {
					t.Errorf("Expected file name 'Sheet', got %s", cfg.Editor.FileName)
				}
				// Fields absent from the file keep their defaults
				if cfg.Editor.FolderName != "New Folder" {
					t.Errorf("Expected default folder name, got %s", cfg.Editor.FolderName)
				}
				if cfg.Editor.CopySuffix != " (Copy)" {
					t.Errorf("Expected default copy suffix, got %q", cfg.Editor.CopySuffix)
				}
			},
		},
		{
			name:        "valid YAML config",
			expectError: false,
			setup: func() string {
				dir, err := os.MkdirTemp("", "tabula-yaml-*")
				if err != nil {
					t.Fatal(err)
				}
				path := filepath.Join(dir, "config.yaml")
				content := "storage:\n  driver: bolt\n  db_path: ./tabula.bolt\napi:\n  host: 0.0.0.0\n  port: 9090\nimport:\n  watch_dir: ./inbox\n"
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
				return path
			},
			cleanup: func(path string) {
				os.RemoveAll(filepath.Dir(path))
			},
			validate: func(t *testing.T, cfg *types.Config) {
				if cfg.Storage.Driver != types.DriverBolt {
					t.Errorf("Expected bolt driver, got %s", cfg.Storage.Driver)
				}
				if cfg.API.Host != "0.0.0.0" || cfg.API.Port != 9090 {
					t.Errorf("Unexpected API config: %+v", cfg.API)
				}
				if cfg.Import.WatchDir != "./inbox" {
					t.Errorf("Expected watch dir ./inbox, got %s", cfg.Import.WatchDir)
				}
				if len(cfg.Import.ContentTypes) != 1 || cfg.Import.ContentTypes[0] != "text/csv" {
					t.Errorf("Expected default content types, got %v", cfg.Import.ContentTypes)
				}
			},
		},
		{
			name:        "nonexistent config file",
			configPath:  "nonexistent.json",
			expectError: true,
		},
		{
			name:        "invalid JSON config",
			expectError: true,
			setup: func() string {
				tmpFile, err := os.CreateTemp("", "invalid-config-*.json")
				if err != nil {
					t.Fatal(err)
				}
				tmpFile.WriteString(`{"invalid": json}`)
				tmpFile.Close()
				return tmpFile.Name()
			},
			cleanup: func(path string) {
				os.Remove(path)
			},
		},
		{
			name:        "unknown storage driver",
			expectError: true,
			setup: func() string {
				tmpFile, err := os.CreateTemp("", "driver-config-*.json")
				if err != nil {
					t.Fatal(err)
				}
				tmpFile.WriteString(`{"storage": {"driver": "redis"}}`)
				tmpFile.Close()
				return tmpFile.Name()
			},
			cleanup: func(path string) {
				os.Remove(path)
			},
		},
		{
			name:        "minimal config gets defaults",
			expectError: false,
			setup: func() string {
				tmpFile, err := os.CreateTemp("", "minimal-config-*.json")
				if err != nil {
					t.Fatal(err)
				}
				tmpFile.WriteString(`{}`)
				tmpFile.Close()
				return tmpFile.Name()
			},
			cleanup: func(path string) {
				os.Remove(path)
			},
			validate: func(t *testing.T, cfg *types.Config) {
				if cfg.API.Port != 8086 {
					t.Errorf("Expected API Port 8086, got %d", cfg.API.Port)
				}
				if cfg.Editor.FileContent != "column1,column2\nvalue1,value2" {
					t.Errorf("Unexpected default file content %q", cfg.Editor.FileContent)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var configPath string
			if tt.setup != nil {
				configPath = tt.setup()
				defer tt.cleanup(configPath)
			} else {
				configPath = tt.configPath
			}

			cfg, err := LoadFromFile(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				if cfg != nil {
					t.Errorf("Expected nil config but got %v", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg == nil {
				t.Fatalf("Expected config but got nil")
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

// TestValidate tests the Validate function
func TestValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name        string
		mutate      func(*types.Config)
		nilConfig   bool
		expectError bool
	}{
		{name: "default config", mutate: func(*types.Config) {}},
		{name: "nil config", nilConfig: true, expectError: true},
		{
			name:        "bolt without path",
			mutate:      func(c *types.Config) { c.Storage.Driver = types.DriverBolt; c.Storage.DBPath = "" },
			expectError: true,
		},
		{
			name:   "duckdb in memory",
			mutate: func(c *types.Config) { c.Storage.DBPath = "" },
		},
		{
			name:        "invalid API port",
			mutate:      func(c *types.Config) { c.API.Port = 0 },
			expectError: true,
		},
		{
			name:        "invalid logging format",
			mutate:      func(c *types.Config) { c.Logging.Format = "xml" },
			expectError: true,
		},
		{
			name:        "negative save timeout",
			mutate:      func(c *types.Config) { c.Editor.SaveTimeoutSeconds = -1 },
			expectError: true,
		},
		{
			name:        "invalid folder counts",
			mutate:      func(c *types.Config) { c.Seed.MinFolders = 5; c.Seed.MaxFolders = 3 },
			expectError: true,
		},
		{
			name:        "invalid max depth",
			mutate:      func(c *types.Config) { c.Seed.MaxDepth = 0 },
			expectError: true,
		},
		{
			name:        "no seed columns",
			mutate:      func(c *types.Config) { c.Seed.Columns = 0 },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.nilConfig {
				err = Validate(nil)
			} else {
				cfg := valid
				cfg.Import.ContentTypes = append([]string(nil), valid.Import.ContentTypes...)
				tt.mutate(&cfg)
				err = Validate(&cfg)
			}
			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

// TestConfigFileOperations tests saving and reloading a config
func TestConfigFileOperations(t *testing.T) {
	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			original := DefaultConfig()
			original.API.Port = 8181
			original.Editor.FileName = "Budget"
			original.Storage.DBPath = filepath.Join(t.TempDir(), "tabula.db")

			path := filepath.Join(t.TempDir(), "config"+ext)
			if err := SaveToFile(&original, path); err != nil {
				t.Fatalf("Failed to save config: %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}
			if loaded.API.Port != 8181 {
				t.Errorf("API Port mismatch: expected 8181, got %d", loaded.API.Port)
			}
			if loaded.Editor.FileName != "Budget" {
				t.Errorf("FileName mismatch: expected Budget, got %s", loaded.Editor.FileName)
			}
			if loaded.Storage.DBPath != original.Storage.DBPath {
				t.Errorf("DBPath mismatch: expected %s, got %s", original.Storage.DBPath, loaded.Storage.DBPath)
			}
		})
	}
}

func BenchmarkValidateConfig(b *testing.B) {
	config := DefaultConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Validate(&config)
	}
}
