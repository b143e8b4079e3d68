// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classify

import (
	"fmt"

	"github.com/relabs-tech/fes_gait/internal/features"
)

// Result is the output of one cascade evaluation.
type Result struct {
	Mode  ClassID
	Phase ClassID
	// PhaseEvaluated is false when the mode was static and the phase model
	// was skipped.
	PhaseEvaluated bool
	// Context holds the context-window features. It aliases the cascade's
	// scratch vector and is overwritten by the next Evaluate.
	Context features.Vector
}

// Cascade runs the mode model on the context window and, only for
// ambulatory modes, the phase model on the short phase window. Static
// modes always report Stance.
type Cascade struct {
	mode       Model
	phase      Model
	static     ModeSet
	contextLen int
	phaseLen   int

	contextVec features.Vector
	phaseVec   features.Vector
}

// CascadeConfig holds the window lengths each model was trained with and
// the set of non-ambulatory modes.
type CascadeConfig struct {
	Channels    int
	ContextLen  int
	PhaseLen    int
	StaticModes ModeSet
}

// NewCascade checks that both models accept the configured feature vector.
func NewCascade(mode, phase Model, cfg CascadeConfig) (*Cascade, error) {
	if mode == nil || phase == nil {
		return nil, fmt.Errorf("%w: cascade needs both a mode and a phase model", ErrInvalidModel)
	}
	if cfg.Channels <= 0 || cfg.ContextLen <= 0 || cfg.PhaseLen <= 0 {
		return nil, fmt.Errorf("%w: channels=%d context=%d phase=%d", ErrInvalidModel, cfg.Channels, cfg.ContextLen, cfg.PhaseLen)
	}
	dim := cfg.Channels * features.PerChannel
	if mode.Dimension() != dim {
		return nil, fmt.Errorf("mode model: %w: model takes %d features, %d channels give %d", ErrDimension, mode.Dimension(), cfg.Channels, dim)
	}
	if phase.Dimension() != dim {
		return nil, fmt.Errorf("phase model: %w: model takes %d features, %d channels give %d", ErrDimension, phase.Dimension(), cfg.Channels, dim)
	}
	static := cfg.StaticModes
	if static == nil {
		static = DefaultStaticModes
	}
	return &Cascade{
		mode:       mode,
		phase:      phase,
		static:     append(ModeSet(nil), static...),
		contextLen: cfg.ContextLen,
		phaseLen:   cfg.PhaseLen,
		contextVec: features.NewVector(cfg.Channels),
		phaseVec:   features.NewVector(cfg.Channels),
	}, nil
}

// Ambulatory reports whether the phase model runs for this mode.
func (c *Cascade) Ambulatory(mode ClassID) bool {
	return !c.static.Contains(mode)
}

// Evaluate extracts features from w and runs both stages.
func (c *Cascade) Evaluate(w *features.Window) (Result, error) {
	if err := features.Extract(w, c.contextLen, c.contextVec); err != nil {
		return Result{}, fmt.Errorf("context features: %w", err)
	}
	res := Result{
		Mode:    c.mode.Classify(c.contextVec),
		Phase:   Stance,
		Context: c.contextVec,
	}
	if !c.Ambulatory(res.Mode) {
		return res, nil
	}
	if err := features.Extract(w, c.phaseLen, c.phaseVec); err != nil {
		return Result{}, fmt.Errorf("phase features: %w", err)
	}
	res.Phase = c.phase.Classify(c.phaseVec)
	res.PhaseEvaluated = true
	return res, nil
}
