// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classify

import (
	"fmt"
	"sort"

	"github.com/relabs-tech/fes_gait/internal/features"
)

// Leaf marks a Node that holds a class instead of a split.
const Leaf = -1

// Node is one entry of an array-encoded decision tree. Split nodes send
// v[Feature] <= Threshold to Left and everything else to Right.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Class     ClassID
}

// LeafNode returns a terminal node for class c.
func LeafNode(c ClassID) Node { return Node{Feature: Leaf, Class: c} }

// Tree is a binary decision tree stored in pre-order: every child index is
// greater than its parent's, so traversal always terminates.
type Tree struct {
	dim   int
	nodes []Node
}

// NewTree validates and copies the node table.
func NewTree(dim int, nodes []Node) (*Tree, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidModel, dim)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", ErrInvalidModel)
	}
	for i, n := range nodes {
		if n.Feature == Leaf {
			continue
		}
		if n.Feature < 0 || n.Feature >= dim {
			return nil, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrDimension, i, n.Feature, dim)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(nodes) || n.Right >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d has children %d/%d outside (%d, %d)", ErrInvalidModel, i, n.Left, n.Right, i, len(nodes))
		}
	}
	return &Tree{dim: dim, nodes: append([]Node(nil), nodes...)}, nil
}

// MustTree is NewTree for compiled-in tables.
func MustTree(dim int, nodes []Node) *Tree {
	t, err := NewTree(dim, nodes)
	if err != nil {
		panic(err)
	}
	return t
}

// Dimension implements Model.
func (t *Tree) Dimension() int { return t.dim }

// Classify implements Model.
func (t *Tree) Classify(v features.Vector) ClassID {
	mustDim(v, t.dim)
	i := 0
	for {
		n := &t.nodes[i]
		if n.Feature == Leaf {
			return n.Class
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *Tree) leafClasses(into map[ClassID]struct{}) {
	for _, n := range t.nodes {
		if n.Feature == Leaf {
			into[n.Class] = struct{}{}
		}
	}
}

// Forest is a majority vote over trees. Equal vote counts go to the lowest
// class id.
type Forest struct {
	dim     int
	trees   []*Tree
	classes []ClassID // sorted ascending
}

// NewForest groups trees that share one input dimension.
func NewForest(trees []*Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	dim := trees[0].dim
	seen := map[ClassID]struct{}{}
	for i, t := range trees {
		if t.dim != dim {
			return nil, fmt.Errorf("%w: tree %d has dimension %d, tree 0 has %d", ErrDimension, i, t.dim, dim)
		}
		t.leafClasses(seen)
	}
	classes := make([]ClassID, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return &Forest{dim: dim, trees: append([]*Tree(nil), trees...), classes: classes}, nil
}

// Dimension implements Model.
func (f *Forest) Dimension() int { return f.dim }

// Classify implements Model.
func (f *Forest) Classify(v features.Vector) ClassID {
	best, bestVotes := f.classes[0], -1
	for _, c := range f.classes {
		votes := 0
		for _, t := range f.trees {
			if t.Classify(v) == c {
				votes++
			}
		}
		if votes > bestVotes {
			best, bestVotes = c, votes
		}
	}
	return best
}
