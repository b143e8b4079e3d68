// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/features"
)

// RunModelCheck classifies one feature row with a model file, or with a
// built-in table when path is "mode" or "phase". It is used to compare
// exported tables against the training tooling's predictions.
func RunModelCheck(path string, args []string, w io.Writer) error {
	var (
		m     classify.Model
		names func(classify.ClassID) string
	)
	switch path {
	case "mode":
		m, names = classify.DefaultModeModel(), classify.ModeName
	case "phase":
		m, names = classify.DefaultPhaseModel(), classify.PhaseName
	default:
		loaded, spec, err := classify.LoadFile(path)
		if err != nil {
			return err
		}
		m, names = loaded, classify.ModeName
		if spec.Name == "phase" {
			names = classify.PhaseName
		}
	}

	if len(args) != m.Dimension() {
		return fmt.Errorf("model reads %d features, got %d", m.Dimension(), len(args))
	}
	v := make(features.Vector, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		v[i] = f
	}

	c := m.Classify(v)
	fmt.Fprintf(w, "class %d (%s)\n", c, names(c))
	if lda, ok := m.(*classify.LDA); ok {
		for i, k := range lda.Classes() {
			fmt.Fprintf(w, "  score %-14s %12.6f\n", names(k), lda.Score(v, i))
		}
	}
	return nil
}
