// Package tagtree turns flat tag rows into display structures: a forest for
// the sidebar, the standalone/hierarchical split, and breadcrumb chains for
// stored tag paths. Nothing here touches storage.
package tagtree

import (
	"strings"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

const Separator = "/"

type Node struct {
	models.Tag
	Children []*Node `json:"children"`
}

type Partitioned struct {
	Standalone   []*Node `json:"standalone"`
	Hierarchical []*Node `json:"hierarchical"`
}

// ToForest links tags to their parents in one pass. A tag whose parent is
// nil, missing from the input, or itself becomes a root. Input order is kept
// among siblings and among roots. A longer parent cycle is broken at its
// first tag in input order, which is appended as an extra root.
func ToForest(tags []models.Tag) []*Node {
	nodes := make(map[uint64]*Node, len(tags))
	ordered := make([]*Node, 0, len(tags))
	for i := range tags {
		if _, ok := nodes[tags[i].ID]; ok {
			continue
		}
		n := &Node{Tag: tags[i], Children: []*Node{}}
		nodes[n.ID] = n
		ordered = append(ordered, n)
	}

	roots := make([]*Node, 0)
	for _, n := range ordered {
		if n.ParentID == nil || *n.ParentID == n.ID {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*n.ParentID]
		if !ok {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	visited := make(map[uint64]bool, len(ordered))
	for _, r := range roots {
		visit(r, visited)
	}
	for _, n := range ordered {
		if visited[n.ID] {
			continue
		}
		parent := nodes[*n.ParentID]
		parent.Children = without(parent.Children, n)
		roots = append(roots, n)
		visit(n, visited)
	}
	return roots
}

func visit(n *Node, visited map[uint64]bool) {
	if visited[n.ID] {
		return
	}
	visited[n.ID] = true
	for _, c := range n.Children {
		visit(c, visited)
	}
}

func without(nodes []*Node, n *Node) []*Node {
	out := nodes[:0]
	for _, c := range nodes {
		if c != n {
			out = append(out, c)
		}
	}
	return out
}

// Partition splits roots into plain chips and menus. A root is standalone
// when it has no parent, no children and no separator in its name or path.
func Partition(forest []*Node) Partitioned {
	p := Partitioned{
		Standalone:   []*Node{},
		Hierarchical: []*Node{},
	}
	for _, n := range forest {
		if isStandalone(n) {
			p.Standalone = append(p.Standalone, n)
		} else {
			p.Hierarchical = append(p.Hierarchical, n)
		}
	}
	return p
}

func isStandalone(n *Node) bool {
	return n.ParentID == nil &&
		len(n.Children) == 0 &&
		!strings.Contains(n.Name, Separator) &&
		!strings.Contains(n.Path, Separator)
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Children)
	}
	return total
}

// SplitPath trims every segment and drops the empty ones.
func SplitPath(path string) []string {
	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func JoinPath(segments []string) string {
	return strings.Join(segments, Separator)
}

// NormalizePath is JoinPath(SplitPath(path)).
func NormalizePath(path string) string {
	return JoinPath(SplitPath(path))
}

// ExpandPath builds a breadcrumb chain for a stored tag path. Segment i gets
// the synthetic id leafID+i. These ids are display keys only and must never
// be persisted or used for lookups.
func ExpandPath(path string, leafID uint64) models.TagPath {
	segments := SplitPath(path)
	chain := make([]models.Tag, len(segments))
	for i, name := range segments {
		t := models.Tag{
			ID:    leafID + uint64(i),
			Name:  name,
			Level: i + 1,
			Path:  JoinPath(segments[:i+1]),
		}
		if i > 0 {
			parent := leafID + uint64(i) - 1
			t.ParentID = &parent
		}
		chain[i] = t
	}

	tp := models.TagPath{Path: path, Tags: chain}
	if len(chain) > 0 {
		tp.LeafTag = chain[len(chain)-1]
	}
	return tp
}
