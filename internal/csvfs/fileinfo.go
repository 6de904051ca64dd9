package csvfs

import (
	"io/fs"
	"time"
)

// entryInfo implements fs.FileInfo
type entryInfo struct {
	entry *entry
}

func newFileInfo(e *entry) fs.FileInfo {
	return &entryInfo{entry: e}
}

// Name returns the base name of the file
func (fi *entryInfo) Name() string {
	return fi.entry.name
}

// Size returns the length in bytes for documents; 0 for directories
func (fi *entryInfo) Size() int64 {
	return int64(len(fi.entry.data))
}

// Mode returns read-only permission bits
func (fi *entryInfo) Mode() fs.FileMode {
	if fi.entry.isDir() {
		return fs.ModeDir | 0555
	}
	return 0444
}

// ModTime returns the snapshot time
func (fi *entryInfo) ModTime() time.Time {
	return fi.entry.modTime
}

// IsDir reports whether the entry is a folder
func (fi *entryInfo) IsDir() bool {
	return fi.entry.isDir()
}

// Sys returns the workspace node, or nil for the root
func (fi *entryInfo) Sys() any {
	if fi.entry.node == nil {
		return nil
	}
	return fi.entry.node
}

// dirEntry implements fs.DirEntry
type dirEntry struct {
	entry *entry
}

func newDirEntry(e *entry) fs.DirEntry {
	return &dirEntry{entry: e}
}

// Name returns the name of the file (or subdirectory) described by the entry
func (de *dirEntry) Name() string {
	return de.entry.name
}

// IsDir reports whether the entry describes a directory
func (de *dirEntry) IsDir() bool {
	return de.entry.isDir()
}

// Type returns the type bits for the entry
func (de *dirEntry) Type() fs.FileMode {
	if de.entry.isDir() {
		return fs.ModeDir
	}
	return 0
}

// Info returns the FileInfo for the file or subdirectory described by the entry
func (de *dirEntry) Info() (fs.FileInfo, error) {
	return newFileInfo(de.entry), nil
}
