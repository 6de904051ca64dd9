package generator

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/types"
)

// RNG wraps math/rand.Rand for seeded random generation
type RNG struct {
	*rand.Rand
}

// NewRNG creates a new seeded random number generator
func NewRNG(seed int64) *RNG {
	return &RNG{
		Rand: rand.New(rand.NewSource(seed)),
	}
}

// columnPool supplies header names for generated documents
var columnPool = []string{"id", "name", "city", "score", "status", "owner", "amount", "region", "notes", "tag"}

// valuePool supplies text cells for generated documents
var valuePool = []string{"alpha", "bravo", "charlie", "delta", "echo", "Lisbon", "Osaka", "Quito", "open", "closed", "north, east"}

// GenerateWorkspace builds a sample forest and its content map. Every level
// gets files; folders are only generated above MaxDepth.
func GenerateWorkspace(cfg types.SeedConfig, rng *RNG) ([]*types.Node, types.ContentMap, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, nil, err
	}

	content := types.ContentMap{}
	forest, err := generateLevel(cfg, rng, 0, content)
	if err != nil {
		return nil, nil, err
	}
	return forest, content, nil
}

// generateLevel generates the children of one folder (or the root at depth 0)
func generateLevel(cfg types.SeedConfig, rng *RNG, depth int, content types.ContentMap) ([]*types.Node, error) {
	nodes := []*types.Node{}

	// Generate folders
	if depth < cfg.MaxDepth {
		folderCount := rng.Intn(cfg.MaxFolders-cfg.MinFolders+1) + cfg.MinFolders
		for i := 0; i < folderCount; i++ {
			id, err := newID(rng)
			if err != nil {
				return nil, err
			}
			children, err := generateLevel(cfg, rng, depth+1, content)
			if err != nil {
				return nil, fmt.Errorf("failed to generate folder %d: %w", i+1, err)
			}
			nodes = append(nodes, &types.Node{
				ID:       id,
				Name:     fmt.Sprintf("folder_%d", i+1),
				Type:     types.NodeTypeFolder,
				Children: children,
			})
		}
	}

	// Generate files
	fileCount := rng.Intn(cfg.MaxFiles-cfg.MinFiles+1) + cfg.MinFiles
	for i := 0; i < fileCount; i++ {
		id, err := newID(rng)
		if err != nil {
			return nil, err
		}
		content[id] = types.ContentEntry{Content: GenerateCSV(rng, cfg.Rows, cfg.Columns)}
		nodes = append(nodes, &types.Node{
			ID:       id,
			Name:     fmt.Sprintf("table_%d", i+1),
			Type:     types.NodeTypeFile,
			Children: []*types.Node{},
		})
	}

	return nodes, nil
}

// newID draws a UUID from the seeded source so a seed always yields the same ids
func newID(rng *RNG) (string, error) {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return "", fmt.Errorf("failed to generate node id: %w", err)
	}
	return id.String(), nil
}

// GenerateCSV produces a document with a header of cols distinct names and rows data rows
func GenerateCSV(rng *RNG, rows, cols int) string {
	if cols > len(columnPool) {
		cols = len(columnPool)
	}
	if cols < 1 || rows < 1 {
		return ""
	}

	header := make([]string, cols)
	for i, j := range rng.Perm(len(columnPool))[:cols] {
		header[i] = columnPool[j]
	}

	records := make([]projection.Record, rows)
	for r := range records {
		record := projection.NewRecord()
		for _, field := range header {
			record.Set(field, cellValue(rng, field, r))
		}
		records[r] = record
	}

	p := projection.Projection{Records: records, Columns: projection.DeriveColumns(records, nil)}
	return projection.Serialize(p)
}

func cellValue(rng *RNG, field string, row int) string {
	switch field {
	case "id":
		return fmt.Sprintf("%d", row+1)
	case "score", "amount":
		return fmt.Sprintf("%d", rng.Intn(1000))
	default:
		return valuePool[rng.Intn(len(valuePool))]
	}
}

// ValidateConfig validates the generator configuration
func ValidateConfig(cfg types.SeedConfig) error {
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if cfg.MinFolders < 0 || cfg.MaxFolders < cfg.MinFolders {
		return fmt.Errorf("invalid folder count range: min=%d, max=%d", cfg.MinFolders, cfg.MaxFolders)
	}
	if cfg.MinFiles < 0 || cfg.MaxFiles < cfg.MinFiles {
		return fmt.Errorf("invalid file count range: min=%d, max=%d", cfg.MinFiles, cfg.MaxFiles)
	}
	if cfg.Rows < 1 || cfg.Columns < 1 {
		return fmt.Errorf("rows and columns must be at least 1: rows=%d, columns=%d", cfg.Rows, cfg.Columns)
	}
	return nil
}
