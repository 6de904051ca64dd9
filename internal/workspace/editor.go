package workspace

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/metrics"
	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/tree"
)

// MenuCommand is a grid context menu entry
type MenuCommand string

// Menu commands
const (
	CommandAddRow       MenuCommand = "add row"
	CommandAddColumn    MenuCommand = "add column"
	CommandDeleteRow    MenuCommand = "delete row"
	CommandDeleteColumn MenuCommand = "delete column"
)

// CellRef addresses a grid cell. Row 0 is the header row; record i is row i+1.
type CellRef struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// GridRange is one rectangular cell selection
type GridRange struct {
	Start CellRef `json:"start"`
	End   CellRef `json:"end"`
}

func (r GridRange) rows() (top, bottom int) {
	return min(r.Start.Row, r.End.Row), max(r.Start.Row, r.End.Row)
}

func (r GridRange) cols() (left, right int) {
	return min(r.Start.Col, r.End.Col), max(r.Start.Col, r.End.Col)
}

// within reports whether the range lies inside a grid showing p: rows 0
// (header) to len(records), columns 0 to len(columns)-1.
func (r GridRange) within(p projection.Projection) bool {
	top, bottom := r.rows()
	left, right := r.cols()
	return top >= 0 && bottom <= len(p.Records) && left >= 0 && right < len(p.Columns)
}

// ColumnInfo identifies the header cell of a column being renamed
type ColumnInfo struct {
	Name string `json:"name"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// SetCell commits one edited cell; row is a record index
func (c *Controller) SetCell(ctx context.Context, row int, field, value string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection.Kind != SelectionFile {
		return State{}, ErrNoFileSelected
	}
	next, err := projection.SetCell(c.proj, row, field, value)
	if err != nil {
		return State{}, err
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return State{}, err
	}
	return c.stateLocked(), nil
}

// ApplyMenuCommand runs a grid menu command against the single selected range
func (c *Controller) ApplyMenuCommand(ctx context.Context, cmd MenuCommand, ranges []GridRange) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection.Kind != SelectionFile {
		return State{}, ErrNoFileSelected
	}
	if len(ranges) != 1 {
		return State{}, fmt.Errorf("%w: got %d", ErrShapeMismatch, len(ranges))
	}
	r := ranges[0]
	if !r.within(c.proj) {
		return State{}, fmt.Errorf("%w: range %+v outside %d rows and %d columns", ErrShapeMismatch, r, len(c.proj.Records)+1, len(c.proj.Columns))
	}
	top, bottom := r.rows()
	left, right := r.cols()

	var next projection.Projection
	switch cmd {
	case CommandAddRow:
		// New rows go below the last selected grid row
		next = projection.AddRows(c.proj, bottom, bottom-top+1)
	case CommandAddColumn:
		next = projection.AddColumns(c.proj, right, right-left+1)
	case CommandDeleteRow:
		// The header row is never deleted
		first := max(top, 1)
		if bottom < first {
			return c.stateLocked(), nil
		}
		next = projection.DeleteRows(c.proj, first-1, bottom-first+1)
	case CommandDeleteColumn:
		var names []string
		for col := left; col <= right; col++ {
			if name, ok := projection.ColumnAt(c.proj, col); ok {
				names = append(names, name)
			}
		}
		next = projection.DeleteColumns(c.proj, names)
	default:
		return State{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	if err := c.saveLocked(ctx, next); err != nil {
		return State{}, err
	}
	c.logger.Debug("menu command applied", zap.String("command", string(cmd)), zap.Int("top", top), zap.Int("left", left))
	return c.stateLocked(), nil
}

// CellDoubleClicked returns the column to rename when a header cell was
// double-clicked, and false for any other cell.
func (c *Controller) CellDoubleClicked(row, col int, value string) (ColumnInfo, bool) {
	if row != 0 {
		return ColumnInfo{}, false
	}
	return ColumnInfo{Name: value, Row: row, Col: col}, true
}

// RenameColumn renames the column displayed at col
func (c *Controller) RenameColumn(ctx context.Context, col int, name string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selection.Kind != SelectionFile {
		return State{}, ErrNoFileSelected
	}
	field, ok := projection.ColumnAt(c.proj, col)
	if !ok {
		return State{}, fmt.Errorf("%w: index %d", projection.ErrUnknownColumn, col)
	}
	next, err := projection.RenameColumn(c.proj, field, name)
	if err != nil {
		return State{}, err
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return State{}, err
	}
	return c.stateLocked(), nil
}

// saveLocked serializes next into the selected file's content entry. The
// projection only changes once the write succeeded.
func (c *Controller) saveLocked(ctx context.Context, next projection.Projection) (err error) {
	start := time.Now()
	c.save.Saving = true
	defer func() {
		c.save.Saving = false
		if err != nil {
			c.save.LastError = err.Error()
		} else {
			c.save.LastError = ""
			c.save.LastSaved = c.now()
		}
		metrics.RecordSave(time.Since(start), err)
	}()

	ctx, cancel := c.saveContext(ctx)
	defer cancel()

	id := c.selection.NodeID
	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	if node := tree.Find(forest, id); node == nil || !node.IsFile() {
		c.clearSelectionLocked()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	content = content.Clone()
	entry := content[id]
	entry.Content = projection.Serialize(next)
	content[id] = entry
	if err := c.stores.Content.Set(ctx, content); err != nil {
		return fmt.Errorf("failed to save content: %w", err)
	}

	c.proj = next
	return nil
}
