package csvfs

import (
	"bytes"
	"io"
	"io/fs"
)

// file implements fs.File for documents
type file struct {
	*bytes.Reader
	entry *entry
}

func newFile(e *entry) *file {
	return &file{Reader: bytes.NewReader(e.data), entry: e}
}

// Stat returns the FileInfo structure describing file
func (f *file) Stat() (fs.FileInfo, error) {
	return newFileInfo(f.entry), nil
}

// Close closes the file
func (f *file) Close() error {
	return nil
}

// dir implements fs.ReadDirFile for folders
type dir struct {
	entry  *entry
	path   string
	offset int
}

// Stat returns the FileInfo structure describing dir
func (d *dir) Stat() (fs.FileInfo, error) {
	return newFileInfo(d.entry), nil
}

// Read fails for directories
func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.path, Err: fs.ErrInvalid}
}

// ReadDir returns up to n entries in workspace order. With n <= 0 it returns
// all remaining entries and a nil error.
func (d *dir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entry.children[d.offset:]
	if n > 0 && len(remaining) == 0 {
		return nil, io.EOF
	}

	count := len(remaining)
	if n > 0 && n < count {
		count = n
	}

	result := make([]fs.DirEntry, count)
	for i, e := range remaining[:count] {
		result[i] = newDirEntry(e)
	}
	d.offset += count
	return result, nil
}

// Close closes the directory
func (d *dir) Close() error {
	return nil
}
