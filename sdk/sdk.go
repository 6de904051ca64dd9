package sdk

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/config"
	"github.com/Project-Sylos/Tabula/internal/csvfs"
	"github.com/Project-Sylos/Tabula/internal/db"
	"github.com/Project-Sylos/Tabula/internal/generator"
	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/store"
	"github.com/Project-Sylos/Tabula/internal/tree"
	"github.com/Project-Sylos/Tabula/internal/types"
	"github.com/Project-Sylos/Tabula/internal/watcher"
	"github.com/Project-Sylos/Tabula/internal/workspace"
)

// Tabula is the public SDK interface for the CSV workspace.
// It wraps the storage backend and the workspace controller.
type Tabula struct {
	cfg    *types.Config
	kv     db.KV
	stores *store.Stores
	ctrl   *workspace.Controller
}

// New creates a Tabula instance using the specified config file
func New(configPath string) (*Tabula, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Tabula instance from an already loaded configuration.
// Options are passed through to the workspace controller.
func NewWithConfig(cfg *types.Config, opts ...workspace.Option) (*Tabula, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	kv, err := db.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	stores := store.Open(kv)
	ctrl := workspace.New(stores, cfg.Editor, cfg.Import, opts...)
	if err := ctrl.Refresh(context.Background()); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	logging.Named("sdk").Info("workspace opened",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("db_path", cfg.Storage.DBPath))

	return &Tabula{cfg: cfg, kv: kv, stores: stores, ctrl: ctrl}, nil
}

// Close closes the storage backend
func (t *Tabula) Close() error {
	return t.kv.Close()
}

// GetConfig returns the current configuration
func (t *Tabula) GetConfig() *types.Config {
	return t.cfg
}

// Tree reloads and returns the workspace forest
func (t *Tabula) Tree(ctx context.Context) ([]*types.Node, error) {
	if err := t.ctrl.Refresh(ctx); err != nil {
		return nil, err
	}
	return t.ctrl.Tree(), nil
}

// Outline returns the forest as a flat pre-order listing with depth and path
func (t *Tabula) Outline(ctx context.Context) ([]tree.Entry, error) {
	forest, err := t.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Outline(forest), nil
}

// State returns the selection, projection and save status
func (t *Tabula) State() workspace.State {
	return t.ctrl.State()
}

// Select focuses a node; an empty id clears the selection
func (t *Tabula) Select(ctx context.Context, id string) (workspace.State, error) {
	return t.ctrl.Select(ctx, id)
}

// GetNode returns a node by id
func (t *Tabula) GetNode(ctx context.Context, id string) (*types.Node, error) {
	return t.ctrl.Node(ctx, id)
}

// CreateFile adds a new file under parentID
func (t *Tabula) CreateFile(ctx context.Context, parentID string) (*types.Node, error) {
	return t.ctrl.CreateFile(ctx, parentID)
}

// CreateFolder adds a new folder under parentID
func (t *Tabula) CreateFolder(ctx context.Context, parentID string) (*types.Node, error) {
	return t.ctrl.CreateFolder(ctx, parentID)
}

// Duplicate copies a file next to the original
func (t *Tabula) Duplicate(ctx context.Context, id string) (*types.Node, error) {
	return t.ctrl.Duplicate(ctx, id)
}

// DeleteNode removes a node with its subtree and content
func (t *Tabula) DeleteNode(ctx context.Context, id string) error {
	return t.ctrl.Delete(ctx, id)
}

// Move relocates one node under parentID at index
func (t *Tabula) Move(ctx context.Context, ids []string, parentID string, index int) error {
	return t.ctrl.Move(ctx, ids, parentID, index)
}

// Rename changes a node name
func (t *Tabula) Rename(ctx context.Context, id, name string) error {
	return t.ctrl.Rename(ctx, id, name)
}

// GetContent returns a file's CSV text and its checksum
func (t *Tabula) GetContent(ctx context.Context, id string) (*types.Node, string, string, error) {
	node, text, err := t.ctrl.Content(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	return node, text, generator.ContentChecksum(text), nil
}

// SetCell edits one cell of the selected file
func (t *Tabula) SetCell(ctx context.Context, row int, field, value string) (workspace.State, error) {
	return t.ctrl.SetCell(ctx, row, field, value)
}

// ApplyMenuCommand runs a grid menu command on the selected file
func (t *Tabula) ApplyMenuCommand(ctx context.Context, cmd workspace.MenuCommand, ranges []workspace.GridRange) (workspace.State, error) {
	return t.ctrl.ApplyMenuCommand(ctx, cmd, ranges)
}

// CellDoubleClicked reports whether a double click opens a column rename
func (t *Tabula) CellDoubleClicked(row, col int, value string) (workspace.ColumnInfo, bool) {
	return t.ctrl.CellDoubleClicked(row, col, value)
}

// RenameColumn renames the column displayed at col
func (t *Tabula) RenameColumn(ctx context.Context, col int, name string) (workspace.State, error) {
	return t.ctrl.RenameColumn(ctx, col, name)
}

// ImportCSV stores text as a new root file
func (t *Tabula) ImportCSV(ctx context.Context, source, name, text string) (*types.Node, error) {
	return t.ctrl.ImportCSV(ctx, source, name, text)
}

// FetchCSV downloads and imports a remote CSV document
func (t *Tabula) FetchCSV(ctx context.Context, url string) (*types.Node, error) {
	return t.ctrl.FetchCSV(ctx, url)
}

// Attach builds the attach message for a file
func (t *Tabula) Attach(ctx context.Context, id string) (types.AttachPayload, error) {
	return t.ctrl.Attach(ctx, id)
}

// Reset clears the workspace
func (t *Tabula) Reset(ctx context.Context) error {
	return t.ctrl.Reset(ctx)
}

// Seed replaces the workspace with a generated sample built from the seed config
func (t *Tabula) Seed(ctx context.Context) (int, error) {
	forest, content, err := generator.GenerateDeterministicWorkspace(t.cfg.Seed)
	if err != nil {
		return 0, fmt.Errorf("failed to generate workspace: %w", err)
	}
	if err := t.stores.Save(ctx, forest, content); err != nil {
		return 0, fmt.Errorf("failed to save workspace: %w", err)
	}
	if err := t.ctrl.Refresh(ctx); err != nil {
		return 0, err
	}
	return tree.Count(forest), nil
}

// Ping checks that the storage backend is usable
func (t *Tabula) Ping(ctx context.Context) error {
	return t.kv.Ping(ctx)
}

// SetLogLevel changes the log level of the running process
func (t *Tabula) SetLogLevel(level string) error {
	if err := logging.SetLevel(level); err != nil {
		return err
	}
	t.cfg.Logging.Level = logging.Level()
	return nil
}

// StoreInfo describes the persisted keys
func (t *Tabula) StoreInfo(ctx context.Context) ([]types.StoreInfo, error) {
	return t.kv.Info(ctx)
}

// Subscribe registers for store change notifications
func (t *Tabula) Subscribe() chan store.Event {
	return t.stores.Bus.Subscribe()
}

// Unsubscribe stops delivery to ch
func (t *Tabula) Unsubscribe(ch chan store.Event) {
	t.stores.Bus.Unsubscribe(ch)
}

// Watch keeps the controller in sync with store changes until ctx is done
func (t *Tabula) Watch(ctx context.Context) error {
	return t.ctrl.Watch(ctx)
}

// NewWatcher returns a drop directory watcher feeding the workspace, or nil
// when no watch directory is configured
func (t *Tabula) NewWatcher(debounce time.Duration) *watcher.Watcher {
	if t.cfg.Import.WatchDir == "" {
		return nil
	}
	return watcher.New(t.cfg.Import.WatchDir, t.ctrl, debounce)
}

// AsFS returns a read-only fs.FS view of the current workspace snapshot.
// Folders are directories and files are <name>.csv.
func (t *Tabula) AsFS(ctx context.Context) (fs.FS, error) {
	forest, content, err := t.stores.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return csvfs.New(forest, content, time.Now()), nil
}

// Re-export types for convenience
type (
	Config      = types.Config
	Node        = types.Node
	APIResponse = types.APIResponse
	State       = workspace.State
	GridRange   = workspace.GridRange
	CellRef     = workspace.CellRef
	MenuCommand = workspace.MenuCommand
	Projection  = projection.Projection
	Event       = store.Event
)

// Re-export constants
const (
	NodeTypeFolder = types.NodeTypeFolder
	NodeTypeFile   = types.NodeTypeFile

	CommandAddRow       = workspace.CommandAddRow
	CommandAddColumn    = workspace.CommandAddColumn
	CommandDeleteRow    = workspace.CommandDeleteRow
	CommandDeleteColumn = workspace.CommandDeleteColumn
)
