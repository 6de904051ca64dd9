// Package csvfs exposes a workspace snapshot as a read-only io/fs.FS.
// Folders become directories and files become "<name>.csv".
package csvfs

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Project-Sylos/Tabula/internal/types"
)

// Extension is appended to the name of every file node
const Extension = ".csv"

// entry is one file or directory of the snapshot
type entry struct {
	name     string
	node     *types.Node // nil for the root
	data     []byte
	children []*entry
	modTime  time.Time
}

func (e *entry) isDir() bool {
	return e.node == nil || e.node.IsFolder()
}

// FS is an immutable view of one snapshot
type FS struct {
	root  *entry
	index map[string]*entry
}

// New builds the view. modTime is reported for every entry.
func New(forest []*types.Node, content types.ContentMap, modTime time.Time) *FS {
	fsys := &FS{
		root:  &entry{name: ".", modTime: modTime},
		index: make(map[string]*entry),
	}
	fsys.index["."] = fsys.root
	fsys.root.children = fsys.build(forest, content, modTime, nil)
	return fsys
}

// build creates the entries of one directory level and indexes them by path
func (fsys *FS) build(nodes []*types.Node, content types.ContentMap, modTime time.Time, parents []string) []*entry {
	used := make(map[string]int, len(nodes))
	entries := make([]*entry, 0, len(nodes))

	for _, n := range nodes {
		base := sanitize(n.Name)
		ext := ""
		if n.IsFile() {
			ext = Extension
		}
		name := uniqueName(used, base, ext)

		e := &entry{name: name, node: n, modTime: modTime}
		if n.IsFile() {
			e.data = []byte(content[n.ID].Content)
		}

		names := append(append([]string(nil), parents...), name)
		fsys.index[path.Join(names...)] = e
		if n.IsFolder() {
			e.children = fsys.build(n.Children, content, modTime, names)
		}
		entries = append(entries, e)
	}
	return entries
}

// uniqueName returns base+ext, or "base (k)"+ext when that name is taken at this level
func uniqueName(used map[string]int, base, ext string) string {
	name := base + ext
	key := strings.ToLower(name)
	used[key]++
	if used[key] == 1 {
		return name
	}
	for k := used[key]; ; k++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, k, ext)
		ckey := strings.ToLower(candidate)
		if used[ckey] == 0 {
			used[ckey] = 1
			return candidate
		}
	}
}

// sanitize turns a display name into a valid path element
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	switch name {
	case "":
		return "untitled"
	case ".", "..":
		return "_" + name
	}
	return name
}

// Open implements fs.FS
func (fsys *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := fsys.index[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if e.isDir() {
		return &dir{entry: e, path: name}, nil
	}
	return newFile(e), nil
}

// ReadFile implements fs.ReadFileFS
func (fsys *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	e, ok := fsys.index[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	if e.isDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return append([]byte(nil), e.data...), nil
}

// NodeID returns the id of the node behind a path, for files and folders alike
func (fsys *FS) NodeID(name string) (string, bool) {
	e, ok := fsys.index[path.Clean(name)]
	if !ok || e.node == nil {
		return "", false
	}
	return e.node.ID, true
}
