package types

import (
	"time"
)

// Config represents the complete configuration for Tabula
type Config struct {
	Storage StorageConfig `json:"storage" yaml:"storage"`
	API     APIConfig     `json:"api" yaml:"api"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Editor  EditorConfig  `json:"editor" yaml:"editor"`
	Import  ImportConfig  `json:"import" yaml:"import"`
	Seed    SeedConfig    `json:"seed" yaml:"seed"`
}

// StorageConfig selects the key-value backend that persists both stores
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "duckdb" or "bolt"
	DBPath string `json:"db_path" yaml:"db_path"`
}

// APIConfig represents the HTTP API configuration
type APIConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `json:"format" yaml:"format"` // json, console
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// EditorConfig holds the defaults used when nodes are created or saved
type EditorConfig struct {
	FileName           string `json:"file_name" yaml:"file_name"`
	FolderName         string `json:"folder_name" yaml:"folder_name"`
	FileContent        string `json:"file_content" yaml:"file_content"`
	CopySuffix         string `json:"copy_suffix" yaml:"copy_suffix"`
	SaveTimeoutSeconds int    `json:"save_timeout_seconds" yaml:"save_timeout_seconds"`
}

// ImportConfig configures the external import pathways
type ImportConfig struct {
	WatchDir            string   `json:"watch_dir" yaml:"watch_dir"`
	FetchTimeoutSeconds int      `json:"fetch_timeout_seconds" yaml:"fetch_timeout_seconds"`
	MaxBytes            int64    `json:"max_bytes" yaml:"max_bytes"`
	ContentTypes        []string `json:"content_types" yaml:"content_types"`
}

// SeedConfig represents the sample workspace generation configuration
type SeedConfig struct {
	MaxDepth   int   `json:"max_depth" yaml:"max_depth"`
	MinFolders int   `json:"min_folders" yaml:"min_folders"`
	MaxFolders int   `json:"max_folders" yaml:"max_folders"`
	MinFiles   int   `json:"min_files" yaml:"min_files"`
	MaxFiles   int   `json:"max_files" yaml:"max_files"`
	Rows       int   `json:"rows" yaml:"rows"`
	Columns    int   `json:"columns" yaml:"columns"`
	Seed       int64 `json:"seed" yaml:"seed"`
}

// NodeType distinguishes files from folders
type NodeType string

// NodeType constants
const (
	NodeTypeFolder NodeType = "folder"
	NodeTypeFile   NodeType = "file"
)

// Node is one entry of the workspace forest.
// Nodes are treated as immutable once they are part of a snapshot:
// every mutation allocates new nodes along the path it touches.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children"`
}

// IsFile reports whether the node is a file node
func (n *Node) IsFile() bool {
	return n.Type == NodeTypeFile
}

// IsFolder reports whether the node is a folder node
func (n *Node) IsFolder() bool {
	return n.Type == NodeTypeFolder
}

// ContentEntry holds the CSV text owned by a file node
type ContentEntry struct {
	Content string `json:"content"`
}

// ContentMap maps file node ids to their CSV text
type ContentMap map[string]ContentEntry

// Clone returns a shallow copy of the map
func (m ContentMap) Clone() ContentMap {
	out := make(ContentMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// APIResponse represents a generic API response
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// StoreInfo describes one persisted key of the backend
type StoreInfo struct {
	Key       string    `json:"key"`
	Bytes     int       `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AttachPayload is the message handed to a page that wants a CSV file attached
type AttachPayload struct {
	Type string `json:"type"`
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// AttachMessageType is the payload type of AttachPayload
const AttachMessageType = "attach-csv"

// Store keys
const (
	TreeStoreKey    = "csv-node-key"
	ContentStoreKey = "csv-content-key"
)

// Storage drivers
const (
	DriverDuckDB = "duckdb"
	DriverBolt   = "bolt"
)
