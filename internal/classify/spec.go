// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model kinds accepted in parameter files.
const (
	KindLDA       = "lda"
	KindBinaryLDA = "binary_lda"
	KindTree      = "tree"
	KindForest    = "forest"
)

// Spec is the on-disk description of a trained model, as written by the
// export tooling. Example:
//
//	kind: lda
//	dim: 9
//	inputs: [0, 1, 2, 3, 4, 5]
//	classes: [0, 1, 2, 3]
//	intercepts: [11.28, -6.67, -37.33, -9.55]
//	weights:
//	  - [222.56, -180.84, -0.54, -1317.71, -617.48, 2.93]
//	  - ...
type Spec struct {
	Kind       string       `yaml:"kind"`
	Name       string       `yaml:"name,omitempty"`
	Dim        int          `yaml:"dim"`
	WindowLen  int          `yaml:"window_len,omitempty"`
	Inputs     []int        `yaml:"inputs,omitempty"`
	Classes    []int        `yaml:"classes,omitempty"`
	Intercepts []float64    `yaml:"intercepts,omitempty"`
	Weights    [][]float64  `yaml:"weights,omitempty"`
	Nodes      []NodeSpec   `yaml:"nodes,omitempty"`
	Trees      [][]NodeSpec `yaml:"trees,omitempty"`
}

// NodeSpec is one tree node. A node with Class set is a leaf.
type NodeSpec struct {
	Feature   int     `yaml:"feature"`
	Threshold float64 `yaml:"threshold"`
	Left      int     `yaml:"left"`
	Right     int     `yaml:"right"`
	Class     *int    `yaml:"class,omitempty"`
}

// LoadFile reads and builds a model parameter file.
func LoadFile(path string) (Model, *Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model file: %w", err)
	}
	m, spec, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("model file %s: %w", path, err)
	}
	return m, spec, nil
}

// Parse decodes a YAML model description and builds it.
func Parse(data []byte) (Model, *Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, nil, fmt.Errorf("decode model: %w", err)
	}
	m, err := spec.Build()
	if err != nil {
		return nil, nil, err
	}
	return m, &spec, nil
}

// Build turns the description into a Model.
func (s *Spec) Build() (Model, error) {
	classes := make([]ClassID, len(s.Classes))
	for i, c := range s.Classes {
		classes[i] = ClassID(c)
	}

	switch s.Kind {
	case KindLDA:
		var flat []float64
		for _, row := range s.Weights {
			flat = append(flat, row...)
		}
		if len(s.Weights) != len(classes) {
			return nil, fmt.Errorf("%w: %d weight rows for %d classes", ErrInvalidModel, len(s.Weights), len(classes))
		}
		return NewLDA(s.Dim, s.Inputs, s.Intercepts, flat, classes)

	case KindBinaryLDA:
		if len(s.Weights) != 1 || len(s.Intercepts) != 1 {
			return nil, fmt.Errorf("%w: binary lda needs one weight row and one intercept", ErrInvalidModel)
		}
		return NewBinaryLDA(s.Dim, s.Inputs, s.Intercepts[0], s.Weights[0], classes)

	case KindTree:
		return NewTree(s.Dim, nodesFromSpec(s.Nodes))

	case KindForest:
		trees := make([]*Tree, 0, len(s.Trees))
		for i, ns := range s.Trees {
			t, err := NewTree(s.Dim, nodesFromSpec(ns))
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			trees = append(trees, t)
		}
		return NewForest(trees)

	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrInvalidModel, s.Kind)
	}
}

func nodesFromSpec(ns []NodeSpec) []Node {
	nodes := make([]Node, len(ns))
	for i, n := range ns {
		if n.Class != nil {
			nodes[i] = LeafNode(ClassID(*n.Class))
			continue
		}
		nodes[i] = Node{Feature: n.Feature, Threshold: n.Threshold, Left: n.Left, Right: n.Right}
	}
	return nodes
}
