package sdk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Project-Sylos/Tabula/internal/config"
	"github.com/Project-Sylos/Tabula/internal/types"
)

// TestNew tests the New function with various configurations
func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		expectError bool
		setup       func(dir string) string // Returns config path
	}{
		{
			name: "valid json config",
			setup: func(dir string) string {
				path := filepath.Join(dir, "config.json")
				dbPath := strings.ReplaceAll(filepath.Join(dir, "tabula.db"), "\\", "/")
				os.WriteFile(path, []byte(`{
					"storage": {"driver": "duckdb", "db_path": "`+dbPath+`"},
					"api": {"host": "localhost", "port": 8086},
					"logging": {"level": "error", "format": "json"}
				}`), 0644)
				return path
			},
		},
		{
			name: "valid yaml config with bolt",
			setup: func(dir string) string {
				path := filepath.Join(dir, "config.yaml")
				os.WriteFile(path, []byte("storage:\n  driver: bolt\n  db_path: "+filepath.Join(dir, "tabula.bolt")+"\nlogging:\n  level: error\n"), 0644)
				return path
			},
		},
		{
			name:        "nonexistent config file",
			expectError: true,
			setup: func(dir string) string {
				return filepath.Join(dir, "nonexistent.json")
			},
		},
		{
			name:        "invalid JSON config",
			expectError: true,
			setup: func(dir string) string {
				path := filepath.Join(dir, "invalid.json")
				os.WriteFile(path, []byte(`{"invalid": json}`), 0644)
				return path
			},
		},
		{
			name:        "unknown driver",
			expectError: true,
			setup: func(dir string) string {
				path := filepath.Join(dir, "driver.json")
				os.WriteFile(path, []byte(`{"storage": {"driver": "sqlite"}}`), 0644)
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t.TempDir())
			ws, err := New(path)

			if tt.expectError {
				if err == nil {
					ws.Close()
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer ws.Close()

			forest, err := ws.Tree(context.Background())
			if err != nil || len(forest) != 0 {
				t.Errorf("Expected empty workspace, got %v (err %v)", forest, err)
			}
		})
	}
}

func newTestTabula(t *testing.T) *Tabula {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DBPath = ""
	ws, err := NewWithConfig(&cfg)
	if err != nil {
		t.Fatalf("Failed to create workspace: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWorkspaceLifecycle(t *testing.T) {
	ws := newTestTabula(t)
	ctx := context.Background()

	folder, err := ws.CreateFolder(ctx, "")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	file, err := ws.CreateFile(ctx, folder.ID)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	node, text, checksum, err := ws.GetContent(ctx, file.ID)
	if err != nil {
		t.Fatalf("Failed to read content: %v", err)
	}
	if node.Name != "New CSV" || text != "column1,column2\nvalue1,value2" || len(checksum) != 64 {
		t.Errorf("Unexpected content: name=%q text=%q checksum=%q", node.Name, text, checksum)
	}

	if _, err := ws.Select(ctx, file.ID); err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	state, err := ws.ApplyMenuCommand(ctx, CommandAddColumn, []GridRange{{Start: CellRef{Col: 1}, End: CellRef{Col: 1}}})
	if err != nil {
		t.Fatalf("Failed to add column: %v", err)
	}
	if got := state.Projection.Fields(); strings.Join(got, "|") != "column1|column2|New Column (1)" {
		t.Errorf("Unexpected fields %v", got)
	}

	outline, err := ws.Outline(ctx)
	if err != nil || len(outline) != 2 || outline[1].Path != "/New Folder/New CSV" {
		t.Errorf("Unexpected outline %+v (err %v)", outline, err)
	}

	if err := ws.DeleteNode(ctx, folder.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if got := ws.State().Selection.Kind; got != "none" {
		t.Errorf("Expected selection to be cleared after delete, got %q", got)
	}
}

func TestSeedAndAsFS(t *testing.T) {
	ws := newTestTabula(t)
	ctx := context.Background()

	count, err := ws.Seed(ctx)
	if err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	if count == 0 {
		t.Fatalf("Expected seeded nodes")
	}

	fsys, err := ws.AsFS(ctx)
	if err != nil {
		t.Fatalf("Failed to build fs: %v", err)
	}

	var files []string
	fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	})
	if len(files) == 0 {
		t.Fatalf("Expected seeded files in fs view")
	}
	if err := fstest.TestFS(fsys, files...); err != nil {
		t.Errorf("fs view failed conformance: %v", err)
	}

	info, err := ws.StoreInfo(ctx)
	if err != nil || len(info) != 2 {
		t.Errorf("Expected two persisted keys, got %+v (err %v)", info, err)
	}

	if err := ws.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	forest, _ := ws.Tree(ctx)
	if len(forest) != 0 {
		t.Errorf("Expected empty tree after reset")
	}
}

func TestSubscribe(t *testing.T) {
	ws := newTestTabula(t)
	ch := ws.Subscribe()
	defer ws.Unsubscribe(ch)

	if _, err := ws.ImportCSV(context.Background(), "cli", "imported", "a\n1"); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	seen := map[string]bool{}
	timeout := time.After(2 * time.Second)
	for len(seen) < 2 {
		select {
		case ev := <-ch:
			seen[ev.Key] = true
		case <-timeout:
			t.Fatalf("Expected notifications for both stores, got %v", seen)
		}
	}
	if !seen[types.TreeStoreKey] || !seen[types.ContentStoreKey] {
		t.Errorf("Unexpected keys %v", seen)
	}
}

func TestNewWatcher(t *testing.T) {
	ws := newTestTabula(t)
	if ws.NewWatcher(0) != nil {
		t.Errorf("Expected no watcher without a watch dir")
	}

	ws.GetConfig().Import.WatchDir = t.TempDir()
	if ws.NewWatcher(0) == nil {
		t.Errorf("Expected a watcher for a configured dir")
	}
}
