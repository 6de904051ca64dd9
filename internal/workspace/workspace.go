// Package workspace holds the selection and sync controller: every user action
// reads the persisted snapshot, computes a new one with the tree and projection
// packages, writes it back and refreshes from storage.
package workspace

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/logging"
	"github.com/Project-Sylos/Tabula/internal/metrics"
	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/store"
	"github.com/Project-Sylos/Tabula/internal/tree"
	"github.com/Project-Sylos/Tabula/internal/types"
)

// SelectionKind is the state of the tree selection
type SelectionKind string

// Selection kinds
const (
	SelectionNone   SelectionKind = "none"
	SelectionFile   SelectionKind = "file"
	SelectionFolder SelectionKind = "folder"
)

// Selection is the node currently focused in the tree
type Selection struct {
	Kind   SelectionKind `json:"kind"`
	NodeID string        `json:"node_id,omitempty"`
	Name   string        `json:"name,omitempty"`
}

// SaveStatus reports the outcome of the last content save
type SaveStatus struct {
	Saving    bool      `json:"saving"`
	LastSaved time.Time `json:"last_saved,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// State is a copy of the controller state
type State struct {
	Selection  Selection             `json:"selection"`
	Projection projection.Projection `json:"projection"`
	Save       SaveStatus            `json:"save"`
}

// Option configures a Controller
type Option func(*Controller)

// WithIDGenerator replaces uuid.NewString as the node id source
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) { c.now = fn }
}

// WithHTTPClient sets the client used by FetchCSV
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) { c.client = client }
}

// Controller serializes all workspace actions behind one mutex
type Controller struct {
	mu     sync.Mutex
	stores *store.Stores
	editor types.EditorConfig
	imp    types.ImportConfig
	newID  func() string
	now    func() time.Time
	client *http.Client
	logger *zap.Logger

	forest    []*types.Node
	selection Selection
	proj      projection.Projection
	save      SaveStatus
}

// New creates a controller over stores
func New(stores *store.Stores, editor types.EditorConfig, imp types.ImportConfig, opts ...Option) *Controller {
	c := &Controller{
		stores:    stores,
		editor:    editor,
		imp:       imp,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    logging.Named("workspace"),
		forest:    []*types.Node{},
		selection: Selection{Kind: SelectionNone},
		proj:      projection.Empty(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: time.Duration(imp.FetchTimeoutSeconds) * time.Second}
	}
	return c
}

// State returns a copy of the selection, projection and save status
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Selection:  c.selection,
		Projection: c.proj.Clone(),
		Save:       c.save,
	}
}

// Tree returns the forest as of the last refresh
func (c *Controller) Tree() []*types.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forest
}

// Refresh reloads the tree from storage and reconciles the selection
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _, err := c.refreshLocked(ctx)
	return err
}

// refreshLocked loads the persisted snapshot. A selection whose node is gone
// is cleared; a renamed one picks up the new name.
func (c *Controller) refreshLocked(ctx context.Context) ([]*types.Node, types.ContentMap, error) {
	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	c.forest = forest
	files := tree.FileIDs(forest)
	metrics.SetWorkspaceSize(tree.Count(forest), len(files), len(content))
	if len(files) != len(content) {
		c.logger.Warn("file and content counts differ", zap.Int("files", len(files)), zap.Int("entries", len(content)))
	}

	if c.selection.Kind != SelectionNone {
		node := tree.Find(forest, c.selection.NodeID)
		if node == nil {
			c.logger.Debug("selected node vanished", zap.String("id", c.selection.NodeID))
			c.clearSelectionLocked()
		} else {
			c.selection.Name = node.Name
		}
	}
	return forest, content, nil
}

func (c *Controller) clearSelectionLocked() {
	c.selection = Selection{Kind: SelectionNone}
	c.proj = projection.Empty()
}

// Select focuses a node. Folders show an empty projection; files load their
// content. Malformed content leaves the previous state in place. An empty id
// clears the selection.
func (c *Controller) Select(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		c.clearSelectionLocked()
		return c.stateLocked(), nil
	}

	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return State{}, fmt.Errorf("failed to load workspace: %w", err)
	}
	node := tree.Find(forest, id)
	if node == nil {
		return State{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if node.IsFolder() {
		c.selection = Selection{Kind: SelectionFolder, NodeID: node.ID, Name: node.Name}
		c.proj = projection.Empty()
		return c.stateLocked(), nil
	}

	proj := projection.Empty()
	if entry, ok := content[id]; ok {
		proj, err = projection.Parse(entry.Content)
		if err != nil {
			return State{}, fmt.Errorf("failed to load %s: %w", node.Name, err)
		}
	}

	// The dataset is replaced directly; no deferred reset step is needed.
	c.selection = Selection{Kind: SelectionFile, NodeID: node.ID, Name: node.Name}
	c.proj = proj
	c.save = SaveStatus{}
	return c.stateLocked(), nil
}

func (c *Controller) stateLocked() State {
	return State{Selection: c.selection, Projection: c.proj.Clone(), Save: c.save}
}

// resolve returns id, or the selected node id when id is empty
func (c *Controller) resolve(id string) string {
	if id == "" {
		return c.selection.NodeID
	}
	return id
}

// commitLocked writes the forest (and content when non-nil) in one
// transaction, then refreshes from storage.
func (c *Controller) commitLocked(ctx context.Context, op string, forest []*types.Node, content types.ContentMap) (err error) {
	defer func() { metrics.RecordMutation(op, err) }()

	ctx, cancel := c.saveContext(ctx)
	defer cancel()

	if content != nil {
		if verr := tree.Validate(forest, content); verr != nil {
			c.logger.Warn("workspace invariant violated", zap.String("op", op), zap.Error(verr))
		}
		err = c.stores.Save(ctx, forest, content)
	} else {
		err = c.stores.Tree.Set(ctx, forest)
	}
	if err != nil {
		return fmt.Errorf("failed to %s: %w", strings.ReplaceAll(op, "_", " "), err)
	}

	c.logger.Debug("workspace committed", zap.String("op", op), zap.Int("nodes", tree.Count(forest)))
	_, _, err = c.refreshLocked(ctx)
	return err
}

func (c *Controller) saveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.editor.SaveTimeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(c.editor.SaveTimeoutSeconds)*time.Second)
}

// parentLocked picks the parent for a new node: parentID when given, else the
// selected folder, else the root.
func (c *Controller) parentLocked(parentID string) string {
	if parentID != "" {
		return parentID
	}
	if c.selection.Kind == SelectionFolder {
		return c.selection.NodeID
	}
	return ""
}

// CreateFile adds a file with the default name and content
func (c *Controller) CreateFile(ctx context.Context, parentID string) (*types.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	node := &types.Node{ID: c.newID(), Name: c.editor.FileName, Type: types.NodeTypeFile, Children: []*types.Node{}}
	content = content.Clone()
	content[node.ID] = types.ContentEntry{Content: c.editor.FileContent}

	if err := c.commitLocked(ctx, "create_file", tree.Insert(forest, c.parentLocked(parentID), node), content); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateFolder adds an empty folder with the default name
func (c *Controller) CreateFolder(ctx context.Context, parentID string) (*types.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	forest, err := c.stores.Tree.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}

	node := &types.Node{ID: c.newID(), Name: c.editor.FolderName, Type: types.NodeTypeFolder, Children: []*types.Node{}}
	if err := c.commitLocked(ctx, "create_folder", tree.Insert(forest, c.parentLocked(parentID), node), nil); err != nil {
		return nil, err
	}
	return node, nil
}

// Duplicate copies a file next to the original under a suffixed name
func (c *Controller) Duplicate(ctx context.Context, id string) (*types.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id = c.resolve(id)
	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	original := tree.Find(forest, id)
	if original == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !original.IsFile() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, id)
	}

	copied := &types.Node{ID: c.newID(), Name: original.Name + c.editor.CopySuffix, Type: types.NodeTypeFile, Children: []*types.Node{}}
	content = content.Clone()
	content[copied.ID] = content[id]

	if err := c.commitLocked(ctx, "duplicate", tree.DuplicateAdjacent(forest, copied, id), content); err != nil {
		return nil, err
	}
	return copied, nil
}

// Delete removes a node, its descendants and their content
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id = c.resolve(id)
	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	if !tree.Contains(forest, id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	forest, content = tree.DeleteSubtree(forest, content, id)
	return c.commitLocked(ctx, "delete", forest, content)
}

// Move relocates a single dragged node under parentID (root when empty) at index
func (c *Controller) Move(ctx context.Context, ids []string, parentID string, index int) error {
	if len(ids) != 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSelection, len(ids))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := ids[0]
	forest, err := c.stores.Tree.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}

	target := tree.Find(forest, id)
	if target == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if parentID != "" {
		parent := tree.Find(forest, parentID)
		switch {
		case parent == nil:
			return fmt.Errorf("%w: %s", ErrNotFound, parentID)
		case !parent.IsFolder():
			return fmt.Errorf("%w: %s", ErrNotAFolder, parentID)
		case tree.Contains([]*types.Node{target}, parentID):
			return ErrInvalidMove
		}
	}

	return c.commitLocked(ctx, "move", tree.Relocate(forest, id, parentID, index), nil)
}

// Rename changes the display name of a node
func (c *Controller) Rename(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id = c.resolve(id)
	forest, err := c.stores.Tree.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}
	if !tree.Contains(forest, id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return c.commitLocked(ctx, "rename", tree.Rename(forest, id, name), nil)
}

// Node returns a node by id
func (c *Controller) Node(ctx context.Context, id string) (*types.Node, error) {
	forest, err := c.stores.Tree.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tree: %w", err)
	}
	node := tree.Find(forest, id)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return node, nil
}

// Content returns the CSV text of a file
func (c *Controller) Content(ctx context.Context, id string) (*types.Node, string, error) {
	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load workspace: %w", err)
	}
	node := tree.Find(forest, id)
	if node == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !node.IsFile() {
		return nil, "", fmt.Errorf("%w: %s", ErrNotAFile, id)
	}
	return node, content[id].Content, nil
}

// Reset clears both stores and the selection
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.stores.Reset(ctx); err != nil {
		return err
	}
	c.clearSelectionLocked()
	c.save = SaveStatus{}
	_, _, err := c.refreshLocked(ctx)
	return err
}

// Watch refreshes on every store change notification until ctx is done
func (c *Controller) Watch(ctx context.Context) error {
	ch := c.stores.Bus.Subscribe()
	defer c.stores.Bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := c.Refresh(ctx); err != nil {
				c.logger.Warn("refresh after store change failed", zap.String("key", ev.Key), zap.Error(err))
			}
		}
	}
}
