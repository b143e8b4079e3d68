// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry defines what the controller publishes and how.
package telemetry

import (
	"time"

	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/control"
	"github.com/relabs-tech/fes_gait/internal/pipeline"
)

// Status is the periodic controller snapshot.
type Status struct {
	Session         string    `json:"session"`
	Timestamp       time.Time `json:"timestamp"`
	Tick            uint64    `json:"tick"`
	TimeMs          int64     `json:"time_ms"`
	Primed          bool      `json:"primed"`
	Mode            string    `json:"mode"`
	Phase           string    `json:"phase"`
	PredictedPhase  string    `json:"predicted_phase"`
	Stimulating     bool      `json:"stimulating"`
	Aux             float64   `json:"aux"`
	PhaseDurationMs int64     `json:"phase_duration_ms"`
	AvgSwingMs      float64   `json:"avg_swing_ms"`
	AvgStanceMs     float64   `json:"avg_stance_ms"`
	SwingCount      int       `json:"swing_count"`
	StanceCount     int       `json:"stance_count"`
}

// TransitionEvent is published on every phase change.
type TransitionEvent struct {
	Session      string    `json:"session"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"`
	AtMs         int64     `json:"at_ms"`
	EndedPhaseMs int64     `json:"ended_phase_ms"`
	Mode         string    `json:"mode"`
	Phase        string    `json:"phase"`
	Stimulating  bool      `json:"stimulating"`
}

// FeatureFrame carries the context features of one inference.
type FeatureFrame struct {
	Session  string    `json:"session"`
	TimeMs   int64     `json:"time_ms"`
	Mode     string    `json:"mode"`
	Features []float64 `json:"features"`
}

// NewStatus builds a Status from the pipeline's view of the session.
func NewStatus(session string, now time.Time, st pipeline.Status) Status {
	c := st.Controller
	return Status{
		Session:         session,
		Timestamp:       now,
		Tick:            st.Tick,
		TimeMs:          st.TimeMs,
		Primed:          st.Primed,
		Mode:            classify.ModeName(c.Mode),
		Phase:           classify.PhaseName(c.Phase),
		PredictedPhase:  classify.PhaseName(st.PredictedPhase),
		Stimulating:     c.Stimulating,
		Aux:             st.Aux,
		PhaseDurationMs: st.TimeMs - c.LastTransitionMs,
		AvgSwingMs:      c.AvgSwingMs,
		AvgStanceMs:     c.AvgStanceMs,
		SwingCount:      c.SwingCount,
		StanceCount:     c.StanceCount,
	}
}

// NewTransitionEvent describes tr as seen in out.
func NewTransitionEvent(session string, now time.Time, tr control.Transition, out pipeline.Output) TransitionEvent {
	return TransitionEvent{
		Session:      session,
		Timestamp:    now,
		Kind:         tr.Kind.String(),
		AtMs:         tr.AtMs,
		EndedPhaseMs: tr.EndedPhaseMs,
		Mode:         classify.ModeName(out.Mode),
		Phase:        classify.PhaseName(out.Phase),
		Stimulating:  out.Stimulating,
	}
}

// NewFeatureFrame copies the context features so the frame can outlive
// the next tick.
func NewFeatureFrame(session string, out pipeline.Output, feats []float64) FeatureFrame {
	return FeatureFrame{
		Session:  session,
		TimeMs:   out.TimeMs,
		Mode:     classify.ModeName(out.Mode),
		Features: append([]float64(nil), feats...),
	}
}
