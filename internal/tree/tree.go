// Package tree implements the copy-on-write mutations of the workspace forest.
//
// Every function is pure: the input forest and content map are never modified.
// Nodes on the path from the root to a changed node are reallocated, untouched
// subtrees are shared by reference. Searches use pre-order traversal and match
// on id only. Unknown ids are not errors; the input is returned unchanged.
package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Project-Sylos/Tabula/internal/types"
)

// Validation errors
var (
	ErrDuplicateID    = errors.New("duplicate node id")
	ErrEmptyID        = errors.New("node has empty id")
	ErrUnknownType    = errors.New("unknown node type")
	ErrMissingContent = errors.New("file node has no content entry")
	ErrOrphanContent  = errors.New("content entry has no file node")
)

// Find returns the first node with id in pre-order, or nil
func Find(forest []*types.Node, id string) *types.Node {
	var found *types.Node
	Walk(forest, func(n *types.Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Contains reports whether id exists anywhere in the forest
func Contains(forest []*types.Node, id string) bool {
	return Find(forest, id) != nil
}

// Walk visits every node in pre-order with its depth (roots have depth 0).
// Returning false from fn stops the walk.
func Walk(forest []*types.Node, fn func(n *types.Node, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []*types.Node, depth int, fn func(*types.Node, int) bool) bool {
	for _, n := range nodes {
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Count returns the total number of nodes
func Count(forest []*types.Node) int {
	total := 0
	Walk(forest, func(*types.Node, int) bool {
		total++
		return true
	})
	return total
}

// FileIDs returns the ids of all file nodes in pre-order
func FileIDs(forest []*types.Node) []string {
	var ids []string
	Walk(forest, func(n *types.Node, _ int) bool {
		if n.IsFile() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

// subtreeIDs returns the ids of node and all its descendants
func subtreeIDs(node *types.Node) []string {
	var ids []string
	Walk([]*types.Node{node}, func(n *types.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// collides reports whether any id of node's subtree is already in the forest
func collides(forest []*types.Node, node *types.Node) bool {
	existing := make(map[string]struct{})
	Walk(forest, func(n *types.Node, _ int) bool {
		existing[n.ID] = struct{}{}
		return true
	})
	for _, id := range subtreeIDs(node) {
		if _, ok := existing[id]; ok {
			return true
		}
	}
	return false
}

// withChildren returns a shallow copy of n carrying children
func withChildren(n *types.Node, children []*types.Node) *types.Node {
	return &types.Node{ID: n.ID, Name: n.Name, Type: n.Type, Children: children}
}

// update rebuilds the path to the first node with id, replacing it by fn(node).
// The bool reports whether the node was found.
func update(nodes []*types.Node, id string, fn func(*types.Node) *types.Node) ([]*types.Node, bool) {
	for i, n := range nodes {
		var replaced *types.Node
		if n.ID == id {
			replaced = fn(n)
		} else if children, ok := update(n.Children, id, fn); ok {
			replaced = withChildren(n, children)
		} else {
			continue
		}

		out := make([]*types.Node, len(nodes))
		copy(out, nodes)
		out[i] = replaced
		return out, true
	}
	return nodes, false
}

// remove detaches the first node with id and returns the pruned list and the node
func remove(nodes []*types.Node, id string) ([]*types.Node, *types.Node) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]*types.Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, n
		}
		if children, removed := remove(n.Children, id); removed != nil {
			out := make([]*types.Node, len(nodes))
			copy(out, nodes)
			out[i] = withChildren(n, children)
			return out, removed
		}
	}
	return nodes, nil
}

// insertAt returns a copy of list with node placed at index, clamped to [0, len(list)]
func insertAt(list []*types.Node, index int, node *types.Node) []*types.Node {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	out := make([]*types.Node, 0, len(list)+1)
	out = append(out, list[:index]...)
	out = append(out, node)
	out = append(out, list[index:]...)
	return out
}

// Insert appends node as the last child of the folder parentID. When parentID
// is empty or does not name a folder, node is appended at the root.
// A node whose subtree reuses an existing id is refused.
func Insert(forest []*types.Node, parentID string, node *types.Node) []*types.Node {
	if node == nil || collides(forest, node) {
		return forest
	}

	if parent := Find(forest, parentID); parentID != "" && parent != nil && parent.IsFolder() {
		out, _ := update(forest, parentID, func(p *types.Node) *types.Node {
			return withChildren(p, insertAt(p.Children, len(p.Children), node))
		})
		return out
	}

	return insertAt(forest, len(forest), node)
}

// Relocate moves the subtree rooted at targetID under newParentID (the root when
// empty) at destIndex, clamped to the destination list. The forest is returned
// unchanged when the target is unknown, when the parent is unknown or a file,
// or when the parent lies inside the moved subtree.
func Relocate(forest []*types.Node, targetID, newParentID string, destIndex int) []*types.Node {
	target := Find(forest, targetID)
	if target == nil {
		return forest
	}

	if newParentID != "" {
		parent := Find(forest, newParentID)
		if parent == nil || parent.IsFile() {
			return forest
		}
		if Contains([]*types.Node{target}, newParentID) {
			return forest
		}
	}

	pruned, moved := remove(forest, targetID)
	if newParentID == "" {
		return insertAt(pruned, destIndex, moved)
	}

	out, _ := update(pruned, newParentID, func(p *types.Node) *types.Node {
		return withChildren(p, insertAt(p.Children, destIndex, moved))
	})
	return out
}

// DuplicateAdjacent inserts copied right after the first pre-order node with
// afterID, in that node's sibling list. Unknown afterID or an id collision
// leaves the forest unchanged. Content for copied is the caller's job.
func DuplicateAdjacent(forest []*types.Node, copied *types.Node, afterID string) []*types.Node {
	if copied == nil || collides(forest, copied) {
		return forest
	}
	out, _ := insertAfter(forest, afterID, copied)
	return out
}

func insertAfter(nodes []*types.Node, afterID string, copied *types.Node) ([]*types.Node, bool) {
	for i, n := range nodes {
		if n.ID == afterID {
			return insertAt(nodes, i+1, copied), true
		}
		if children, ok := insertAfter(n.Children, afterID, copied); ok {
			out := make([]*types.Node, len(nodes))
			copy(out, nodes)
			out[i] = withChildren(n, children)
			return out, true
		}
	}
	return nodes, false
}

// DeleteSubtree removes targetID and its descendants from the forest and their
// entries from content. Both results are fresh values; unknown targets return
// the inputs unchanged.
func DeleteSubtree(forest []*types.Node, content types.ContentMap, targetID string) ([]*types.Node, types.ContentMap) {
	pruned, removed := remove(forest, targetID)
	if removed == nil {
		return forest, content
	}

	out := content.Clone()
	for _, id := range subtreeIDs(removed) {
		delete(out, id)
	}
	return pruned, out
}

// Rename returns a forest where id carries name
func Rename(forest []*types.Node, id, name string) []*types.Node {
	out, _ := update(forest, id, func(n *types.Node) *types.Node {
		return &types.Node{ID: n.ID, Name: name, Type: n.Type, Children: n.Children}
	})
	return out
}

// Validate checks global id uniqueness and that content holds an entry
// exactly for every file node.
func Validate(forest []*types.Node, content types.ContentMap) error {
	seen := make(map[string]struct{})
	files := make(map[string]struct{})
	var err error

	Walk(forest, func(n *types.Node, _ int) bool {
		switch {
		case n.ID == "":
			err = fmt.Errorf("%w: %q", ErrEmptyID, n.Name)
			return false
		case n.Type != types.NodeTypeFile && n.Type != types.NodeTypeFolder:
			err = fmt.Errorf("%w: %s has type %q", ErrUnknownType, n.ID, n.Type)
			return false
		}
		if _, dup := seen[n.ID]; dup {
			err = fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
			return false
		}
		seen[n.ID] = struct{}{}
		if n.IsFile() {
			files[n.ID] = struct{}{}
			if _, ok := content[n.ID]; !ok {
				err = fmt.Errorf("%w: %s", ErrMissingContent, n.ID)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for id := range content {
		if _, ok := files[id]; !ok {
			return fmt.Errorf("%w: %s", ErrOrphanContent, id)
		}
	}
	return nil
}

// Entry is one line of a flattened forest
type Entry struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Type  types.NodeType `json:"type"`
	Depth int            `json:"depth"`
	Path  string         `json:"path"`
}

// Outline flattens the forest in pre-order; Path joins the display names of
// the ancestors and the node.
func Outline(forest []*types.Node) []Entry {
	var entries []Entry
	var visit func(nodes []*types.Node, depth int, parents []string)
	visit = func(nodes []*types.Node, depth int, parents []string) {
		for _, n := range nodes {
			names := append(append([]string(nil), parents...), n.Name)
			entries = append(entries, Entry{
				ID:    n.ID,
				Name:  n.Name,
				Type:  n.Type,
				Depth: depth,
				Path:  "/" + strings.Join(names, "/"),
			})
			visit(n.Children, depth+1, names)
		}
	}
	visit(forest, 0, nil)
	return entries
}
