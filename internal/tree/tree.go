// Package tree keeps threaded comments in a materialized path.
//
// Every node's path is its parent's path followed by one fixed-width decimal
// segment holding the node's 1-based position among its siblings. Siblings are
// ordered by votes (descending), then creation time, then id, so sorting a
// thread by path yields a depth-first walk with each sibling group in rank
// order. A rank change (a new reply, a vote) re-sequences the affected group
// and rewrites the paths of the subtrees that moved.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// SegmentWidth is the number of digits per path segment.
	SegmentWidth = 6
	// MaxSiblings is the largest position a segment can hold.
	MaxSiblings = 999999
)

var ErrTooManySiblings = errors.New("tree: sibling group exceeds segment capacity")

// Node is the part of a comment the tree needs to place it.
type Node struct {
	ID        uint
	ParentID  *uint
	Votes     int
	CreatedOn time.Time
	Path      string
}

// Placement is the computed position of a node.
type Placement struct {
	ID    uint
	Path  string
	Depth int
}

// Less reports whether a ranks before b among siblings.
func Less(a, b Node) bool {
	if a.Votes != b.Votes {
		return a.Votes > b.Votes
	}
	if !a.CreatedOn.Equal(b.CreatedOn) {
		return a.CreatedOn.Before(b.CreatedOn)
	}
	return a.ID < b.ID
}

// Segment formats a 1-based sibling position.
func Segment(pos int) string {
	return fmt.Sprintf("%0*d", SegmentWidth, pos)
}

// Depth returns 0 for roots, 1 for their replies, and so on.
func Depth(path string) int {
	if len(path) < SegmentWidth {
		return 0
	}
	return len(path)/SegmentWidth - 1
}

// Parent returns the path of the node's parent, "" for a root.
func Parent(path string) string {
	if len(path) <= SegmentWidth {
		return ""
	}
	return path[:len(path)-SegmentWidth]
}

// IsDescendant reports whether path lies strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	return len(path) > len(ancestor) && strings.HasPrefix(path, ancestor)
}

// Sequence computes the paths of every node below the node identified by
// parentID (nil for the thread root), whose own path is prefix. nodes must
// contain the complete subtree; nodes not reachable from parentID are left
// out of the result. Placements are returned in depth-first order.
func Sequence(prefix string, parentID *uint, nodes []Node) ([]Placement, error) {
	children := make(map[uint][]Node, len(nodes))
	for _, n := range nodes {
		children[key(n.ParentID)] = append(children[key(n.ParentID)], n)
	}
	for k := range children {
		group := children[k]
		if len(group) > MaxSiblings {
			return nil, ErrTooManySiblings
		}
		sort.Slice(group, func(i, j int) bool { return Less(group[i], group[j]) })
	}

	out := make([]Placement, 0, len(nodes))
	var walk func(parent uint, prefix string)
	walk = func(parent uint, prefix string) {
		for i, n := range children[parent] {
			path := prefix + Segment(i+1)
			out = append(out, Placement{ID: n.ID, Path: path, Depth: Depth(path)})
			walk(n.ID, path)
		}
	}
	walk(key(parentID), prefix)
	return out, nil
}

// Diff returns the placements whose path differs from the node's stored one.
func Diff(nodes []Node, placements []Placement) []Placement {
	current := make(map[uint]string, len(nodes))
	for _, n := range nodes {
		current[n.ID] = n.Path
	}
	var changed []Placement
	for _, p := range placements {
		if current[p.ID] != p.Path {
			changed = append(changed, p)
		}
	}
	return changed
}

// Next returns a provisional path for a node appended to a group of size n.
// Sequence later moves it to its ranked position.
func Next(prefix string, n int) (string, error) {
	if n+1 > MaxSiblings {
		return "", ErrTooManySiblings
	}
	return prefix + Segment(n+1), nil
}

func key(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
