package models

import "github.com/Project-Sylos/Tabula/internal/workspace"

// CreateNodeRequest represents the request to create a file or folder.
// An empty parent id means the selected folder, or the root.
type CreateNodeRequest struct {
	ParentID string `json:"parent_id"`
}

// RenameRequest represents the request to rename a node or a column
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveRequest represents a drag and drop of tree nodes
type MoveRequest struct {
	IDs      []string `json:"ids"`
	ParentID string   `json:"parent_id"`
	Index    int      `json:"index"`
}

// SelectRequest represents the request to focus a node
type SelectRequest struct {
	ID string `json:"id"`
}

// SetCellRequest represents one edited grid cell; Row is a record index
type SetCellRequest struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// MenuCommandRequest represents a grid context menu command
type MenuCommandRequest struct {
	Command workspace.MenuCommand `json:"command"`
	Ranges  []workspace.GridRange `json:"ranges"`
}

// DoubleClickRequest represents a double click on a grid cell
type DoubleClickRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// ImportRequest represents a CSV document posted for import
type ImportRequest struct {
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// LogLevelRequest changes the log level of the running server
type LogLevelRequest struct {
	Level string `json:"level"`
}

// ImportURLRequest represents a remote CSV document to fetch
type ImportURLRequest struct {
	URL string `json:"url"`
}
