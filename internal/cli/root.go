// Package cli holds the tabula command line commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Tabula/internal/config"
	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/sdk"
)

// DefaultConfigPath is used when --config is not given
const DefaultConfigPath = "configs/default.json"

// NewRootCmd builds the tabula command tree
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "tabula",
		Short:         "Hierarchical CSV document workspace",
		Long:          `Tabula keeps a tree of folders and CSV files in a local store and edits them as grids.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", DefaultConfigPath, "Configuration file path")

	open := func() (*sdk.Tabula, error) {
		return openWorkspace(configPath)
	}

	cmd.AddCommand(NewDemoCmd(open))
	cmd.AddCommand(NewTreeCmd(open))
	cmd.AddCommand(NewImportCmd(open))
	cmd.AddCommand(NewExportCmd(open))
	cmd.AddCommand(NewSeedCmd(open))

	return cmd
}

// Opener opens the workspace named by the global flags
type Opener func() (*sdk.Tabula, error)

// openWorkspace loads configPath, falling back to the defaults when the
// default path does not exist
func openWorkspace(configPath string) (*sdk.Tabula, error) {
	if configPath == DefaultConfigPath {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			cfg := config.DefaultConfig()
			if err := logging.Init(cfg.Logging); err != nil {
				return nil, fmt.Errorf("failed to initialize logging: %w", err)
			}
			return sdk.NewWithConfig(&cfg)
		}
	}
	return sdk.New(configPath)
}

// Execute runs the root command
func Execute() error {
	defer logging.Sync()
	return NewRootCmd().Execute()
}
