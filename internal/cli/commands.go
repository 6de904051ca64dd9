package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Tabula/internal/workspace"
	"github.com/Project-Sylos/Tabula/sdk"
)

// NewTreeCmd prints the workspace as an indented outline
func NewTreeCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the workspace tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := open()
			if err != nil {
				return err
			}
			defer ws.Close()

			return printTree(cmd.Context(), cmd.OutOrStdout(), ws)
		},
	}

	return cmd
}

func printTree(ctx context.Context, w io.Writer, ws *sdk.Tabula) error {
	entries, err := ws.Outline(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "(empty workspace)")
		return nil
	}
	for _, e := range entries {
		marker := "-"
		if e.Type == sdk.NodeTypeFolder {
			marker = "+"
		}
		fmt.Fprintf(w, "%s%s %s  [%s]\n", strings.Repeat("  ", e.Depth), marker, e.Name, e.ID)
	}
	return nil
}

// NewImportCmd imports CSV files into the workspace root
func NewImportCmd(open Opener) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file.csv>...",
		Short: "Import CSV files",
		Long:  `Imports each CSV file as a new file at the workspace root. The file name without extension becomes the node name.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name can only be used with a single file")
			}

			ws, err := open()
			if err != nil {
				return err
			}
			defer ws.Close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				nodeName := name
				if nodeName == "" {
					base := filepath.Base(path)
					nodeName = strings.TrimSuffix(base, filepath.Ext(base))
				}
				node, err := ws.ImportCSV(cmd.Context(), workspace.SourceCLI, nodeName, string(data))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %q (%s)\n", path, node.Name, node.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Node name for a single imported file")

	return cmd
}

// NewExportCmd writes the workspace to a directory as .csv files
func NewExportCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Export the workspace as a directory of CSV files",
		Long:  `Writes folders as directories and files as <name>.csv. The target directory must not contain any of the exported paths.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := open()
			if err != nil {
				return err
			}
			defer ws.Close()

			fsys, err := ws.AsFS(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.CopyFS(args[0], fsys); err != nil {
				return fmt.Errorf("failed to export workspace: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace exported to %s\n", args[0])
			return nil
		},
	}

	return cmd
}

// NewSeedCmd replaces the workspace with a generated sample
func NewSeedCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the workspace with generated sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := open()
			if err != nil {
				return err
			}
			defer ws.Close()

			count, err := ws.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d nodes (seed %d)\n", count, ws.GetConfig().Seed.Seed)
			return nil
		},
	}

	return cmd
}

// NewDemoCmd walks through the main workspace operations
func NewDemoCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a short demonstration of the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := open()
			if err != nil {
				return err
			}
			defer ws.Close()

			return runDemo(cmd.Context(), cmd.OutOrStdout(), ws)
		},
	}

	return cmd
}

func runDemo(ctx context.Context, w io.Writer, ws *sdk.Tabula) error {
	fmt.Fprintln(w, "Tabula - SDK Demo")
	fmt.Fprintln(w, "=================")

	folder, err := ws.CreateFolder(ctx, "")
	if err != nil {
		return err
	}
	file, err := ws.CreateFile(ctx, folder.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created folder %q with file %q\n", folder.Name, file.Name)

	if _, err := ws.Select(ctx, file.ID); err != nil {
		return err
	}
	if _, err := ws.SetCell(ctx, 0, "column2", "edited"); err != nil {
		return err
	}
	below := []sdk.GridRange{{Start: sdk.CellRef{Row: 1}, End: sdk.CellRef{Row: 1}}}
	if _, err := ws.ApplyMenuCommand(ctx, sdk.CommandAddRow, below); err != nil {
		return err
	}
	right := []sdk.GridRange{{Start: sdk.CellRef{Col: 1}, End: sdk.CellRef{Col: 1}}}
	if _, err := ws.ApplyMenuCommand(ctx, sdk.CommandAddColumn, right); err != nil {
		return err
	}
	if _, err := ws.RenameColumn(ctx, 0, "name"); err != nil {
		return err
	}

	_, text, checksum, err := ws.GetContent(ctx, file.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nEdited content (sha256 %s):\n%s\n", checksum[:12], text)

	copied, err := ws.Duplicate(ctx, file.ID)
	if err != nil {
		return err
	}
	if err := ws.Move(ctx, []string{copied.ID}, "", 0); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nWorkspace tree:")
	if err := printTree(ctx, w, ws); err != nil {
		return err
	}

	payload, err := ws.Attach(ctx, copied.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nAttach payload for %q: %d bytes of CSV\n", payload.Name, len(payload.CSV))

	fmt.Fprintln(w, "\nTo start the API server, run:")
	fmt.Fprintln(w, "  go run ./cmd/api")
	return nil
}
