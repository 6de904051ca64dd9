package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeConfig writes a config whose store lives in dir
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	dbPath := strings.ReplaceAll(filepath.Join(dir, "tabula.db"), "\\", "/")
	data := `{"storage": {"driver": "duckdb", "db_path": "` + dbPath + `"}, "logging": {"level": "error", "format": "json"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportTreeExport(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	csvPath := filepath.Join(dir, "sales.csv")
	os.WriteFile(csvPath, []byte("region,total\nnorth,10"), 0644)

	out, err := run(t, "--config", cfg, "import", csvPath)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, `"sales"`) {
		t.Errorf("Unexpected import output %q", out)
	}

	out, err = run(t, "--config", cfg, "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if !strings.Contains(out, "- sales") {
		t.Errorf("Expected sales in tree output, got %q", out)
	}

	exportDir := filepath.Join(dir, "export")
	if _, err := run(t, "--config", cfg, "export", exportDir); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(exportDir, "sales.csv"))
	if err != nil {
		t.Fatalf("Expected exported file: %v", err)
	}
	if string(data) != "region,total\nnorth,10" {
		t.Errorf("Unexpected exported content %q", data)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	bad := filepath.Join(dir, "bad.csv")
	os.WriteFile(bad, []byte("a,a\n1,2"), 0644)

	tests := []struct {
		name string
		args []string
	}{
		{"import without files", []string{"--config", cfg, "import"}},
		{"import missing file", []string{"--config", cfg, "import", filepath.Join(dir, "missing.csv")}},
		{"import malformed", []string{"--config", cfg, "import", bad}},
		{"name with several files", []string{"--config", cfg, "import", "--name", "x", bad, bad}},
		{"export without dir", []string{"--config", cfg, "export"}},
		{"missing config", []string{"--config", filepath.Join(dir, "none.json"), "tree"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

func TestSeedAndDemo(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "--config", cfg, "seed")
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !strings.Contains(out, "Seeded") {
		t.Errorf("Unexpected seed output %q", out)
	}

	out, err = run(t, "--config", cfg, "demo")
	if err != nil {
		t.Fatalf("demo failed: %v", err)
	}
	for _, want := range []string{"name,column2,New Column (1)", "New CSV (Copy)", "Attach payload"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in demo output:\n%s", want, out)
		}
	}
}
