// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/fes_gait/internal/features"
)

var (
	// ErrDimension reports a model whose input size does not match the
	// configured feature vector.
	ErrDimension = errors.New("classifier dimension mismatch")
	// ErrInvalidModel reports a malformed parameter table.
	ErrInvalidModel = errors.New("invalid classifier parameters")
)

// Model maps a feature vector to a class. Implementations are immutable
// and safe to share.
type Model interface {
	// Classify assumes len(v) == Dimension(); the cascade checks this once
	// at construction.
	Classify(v features.Vector) ClassID
	// Dimension is the feature vector length the model was built for.
	Dimension() int
}

// LDA is a precomputed multiclass linear discriminant: one affine score
// per class, argmax wins. Ties go to the class listed first.
type LDA struct {
	dim        int
	inputs     []int // vector components read, in weight order
	intercepts []float64
	weights    []float64 // len(classes) rows of len(inputs)
	classes    []ClassID
}

// NewLDA builds an LDA over a vector of length dim. inputs selects which
// components feed the weights; nil means all dim components in order.
func NewLDA(dim int, inputs []int, intercepts, weights []float64, classes []ClassID) (*LDA, error) {
	in, err := resolveInputs(dim, inputs)
	if err != nil {
		return nil, err
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: lda needs at least 2 classes, got %d", ErrInvalidModel, len(classes))
	}
	if len(intercepts) != len(classes) {
		return nil, fmt.Errorf("%w: %d intercepts for %d classes", ErrInvalidModel, len(intercepts), len(classes))
	}
	if len(weights) != len(classes)*len(in) {
		return nil, fmt.Errorf("%w: %d weights, want %d classes x %d inputs", ErrDimension, len(weights), len(classes), len(in))
	}
	return &LDA{
		dim:        dim,
		inputs:     in,
		intercepts: append([]float64(nil), intercepts...),
		weights:    append([]float64(nil), weights...),
		classes:    append([]ClassID(nil), classes...),
	}, nil
}

// MustLDA is NewLDA for compiled-in tables.
func MustLDA(dim int, inputs []int, intercepts, weights []float64, classes []ClassID) *LDA {
	m, err := NewLDA(dim, inputs, intercepts, weights, classes)
	if err != nil {
		panic(err)
	}
	return m
}

// Dimension implements Model.
func (m *LDA) Dimension() int { return m.dim }

// Classes returns the class ids in score order.
func (m *LDA) Classes() []ClassID { return m.classes }

// Score returns the affine score of the c-th class.
func (m *LDA) Score(v features.Vector, c int) float64 {
	mustDim(v, m.dim)
	n := len(m.inputs)
	row := m.weights[c*n : (c+1)*n]
	s := m.intercepts[c]
	for i, f := range m.inputs {
		s += v[f] * row[i]
	}
	return s
}

// Classify implements Model.
func (m *LDA) Classify(v features.Vector) ClassID {
	best := 0
	bestScore := math.Inf(-1)
	for c := range m.classes {
		if s := m.Score(v, c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return m.classes[best]
}

// BinaryLDA is the two-class export of a discriminant: a single weight row
// whose sign picks the class.
type BinaryLDA struct {
	dim       int
	inputs    []int
	intercept float64
	weights   []float64
	negative  ClassID // score <= 0
	positive  ClassID // score > 0
}

// NewBinaryLDA builds a two-class discriminant; classes is {negative, positive}.
func NewBinaryLDA(dim int, inputs []int, intercept float64, weights []float64, classes []ClassID) (*BinaryLDA, error) {
	in, err := resolveInputs(dim, inputs)
	if err != nil {
		return nil, err
	}
	if len(classes) != 2 {
		return nil, fmt.Errorf("%w: binary lda needs exactly 2 classes, got %d", ErrInvalidModel, len(classes))
	}
	if len(weights) != len(in) {
		return nil, fmt.Errorf("%w: %d weights for %d inputs", ErrDimension, len(weights), len(in))
	}
	return &BinaryLDA{
		dim:       dim,
		inputs:    in,
		intercept: intercept,
		weights:   append([]float64(nil), weights...),
		negative:  classes[0],
		positive:  classes[1],
	}, nil
}

// Dimension implements Model.
func (m *BinaryLDA) Dimension() int { return m.dim }

// Classify implements Model.
func (m *BinaryLDA) Classify(v features.Vector) ClassID {
	mustDim(v, m.dim)
	s := m.intercept
	for i, f := range m.inputs {
		s += v[f] * m.weights[i]
	}
	if s > 0 {
		return m.positive
	}
	return m.negative
}

func resolveInputs(dim int, inputs []int) ([]int, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidModel, dim)
	}
	if inputs == nil {
		in := make([]int, dim)
		for i := range in {
			in[i] = i
		}
		return in, nil
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: empty input list", ErrInvalidModel)
	}
	for _, f := range inputs {
		if f < 0 || f >= dim {
			return nil, fmt.Errorf("%w: input index %d outside vector of %d", ErrDimension, f, dim)
		}
	}
	return append([]int(nil), inputs...), nil
}

func mustDim(v features.Vector, dim int) {
	if len(v) != dim {
		panic(fmt.Sprintf("classify: feature vector has %d components, model expects %d", len(v), dim))
	}
}
