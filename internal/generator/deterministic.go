package generator

import "github.com/Project-Sylos/Tabula/internal/types"

// GenerateDeterministicWorkspace seeds the generator from cfg.Seed. Every call
// with the same configuration yields the same forest, ids and content.
func GenerateDeterministicWorkspace(cfg types.SeedConfig) ([]*types.Node, types.ContentMap, error) {
	return GenerateWorkspace(cfg, NewRNG(cfg.Seed))
}
