// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package control turns mode and phase predictions into the stimulation
// enable signal.
//
// The controller is a two-state machine (Stance, Swing) with a mode gate in
// front of it. Static modes force Stance and switch stimulation off.
// Stance->Swing needs the phase model, a volitional EMG trigger and a
// minimum stance dwell to agree. Swing->Stance happens on the phase model
// or on a hard timeout. Phase durations feed exponential averages that set
// the dwell time.
package control

import (
	"fmt"

	"github.com/relabs-tech/fes_gait/internal/classify"
)

// Params are the controller constants. They change numbers, not structure.
type Params struct {
	TriggerThreshold float64 // aux feature level that counts as volitional effort
	MinDwellFraction float64 // of the average stance duration
	SwingTimeoutMs   int64   // stimulation ceiling per swing
	Smoothing        float64 // weight of the old average
	InitialSwingMs   float64
	InitialStanceMs  float64
	StaticModes      classify.ModeSet
}

// DefaultParams returns the deployed constants.
func DefaultParams() Params {
	return Params{
		TriggerThreshold: 0.02,
		MinDwellFraction: 0.2,
		SwingTimeoutMs:   1200,
		Smoothing:        0.9,
		InitialSwingMs:   400,
		InitialStanceMs:  600,
		StaticModes:      classify.DefaultStaticModes,
	}
}

// Validate checks the ranges the state machine relies on.
func (p Params) Validate() error {
	if p.Smoothing < 0 || p.Smoothing >= 1 {
		return fmt.Errorf("smoothing factor must be in [0,1), got %v", p.Smoothing)
	}
	if p.MinDwellFraction < 0 || p.MinDwellFraction > 1 {
		return fmt.Errorf("min dwell fraction must be in [0,1], got %v", p.MinDwellFraction)
	}
	if p.SwingTimeoutMs <= 0 {
		return fmt.Errorf("swing timeout must be positive, got %d", p.SwingTimeoutMs)
	}
	if p.InitialSwingMs <= 0 || p.InitialStanceMs <= 0 {
		return fmt.Errorf("initial phase durations must be positive, got swing=%v stance=%v", p.InitialSwingMs, p.InitialStanceMs)
	}
	if len(p.StaticModes) == 0 {
		return fmt.Errorf("at least one static mode is required")
	}
	return nil
}

// State is the persistent controller state.
type State struct {
	Phase                  classify.ClassID `json:"phase"`
	Mode                   classify.ClassID `json:"mode"`
	LastTransitionMs       int64            `json:"last_transition_ms"`
	CurrentPhaseDurationMs int64            `json:"current_phase_duration_ms"`
	AvgSwingMs             float64          `json:"avg_swing_ms"`
	AvgStanceMs            float64          `json:"avg_stance_ms"`
	SwingCount             int              `json:"swing_count"`
	StanceCount            int              `json:"stance_count"`
	Stimulating            bool             `json:"stimulating"`
}

// TransitionKind says why the phase changed.
type TransitionKind int

const (
	NoTransition TransitionKind = iota
	SwingOnset                  // stance -> swing, stimulation on
	HeelStrike                  // swing -> stance on the phase model
	SwingTimeout                // swing -> stance forced by the ceiling
	SafetyReset                 // swing -> stance forced by a static mode
)

func (k TransitionKind) String() string {
	switch k {
	case NoTransition:
		return "none"
	case SwingOnset:
		return "swing_onset"
	case HeelStrike:
		return "heel_strike"
	case SwingTimeout:
		return "swing_timeout"
	case SafetyReset:
		return "safety_reset"
	default:
		return fmt.Sprintf("transition_%d", int(k))
	}
}

// Transition reports a phase change made by Update.
type Transition struct {
	Kind TransitionKind
	AtMs int64
	// EndedPhaseMs is the duration of the phase that just ended.
	EndedPhaseMs int64
}

// Changed reports whether Update changed the phase.
func (t Transition) Changed() bool { return t.Kind != NoTransition }

// Controller owns State; only Update and Reset mutate it.
type Controller struct {
	p Params
	s State
}

// New returns a controller in Stance with stimulation off, anchored at t=0.
func New(p Params) *Controller {
	c := &Controller{p: p}
	c.Reset(0)
	return c
}

// Params returns the constants the controller runs with.
func (c *Controller) Params() Params { return c.p }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State { return c.s }

// Stimulating reports the actuator decision.
func (c *Controller) Stimulating() bool { return c.s.Stimulating }

// Reset restarts therapy: Stance, stimulation off, averages back to their
// initial values, counters cleared.
func (c *Controller) Reset(nowMs int64) {
	c.s = State{
		Phase:            classify.Stance,
		Mode:             classify.Sitting,
		LastTransitionMs: nowMs,
		AvgSwingMs:       c.p.InitialSwingMs,
		AvgStanceMs:      c.p.InitialStanceMs,
	}
}

// Update advances the state machine with one cascade output. aux is the
// volitional trigger feature; nowMs must not go backwards.
func (c *Controller) Update(mode, predictedPhase classify.ClassID, aux float64, nowMs int64) Transition {
	s := &c.s
	s.Mode = mode
	s.CurrentPhaseDurationMs = nowMs - s.LastTransitionMs

	if c.p.StaticModes.Contains(mode) {
		return c.gate(nowMs)
	}

	switch s.Phase {
	case classify.Stance:
		modelSwing := predictedPhase == classify.Swing
		volitional := aux > c.p.TriggerThreshold
		dwelled := float64(s.CurrentPhaseDurationMs) > s.AvgStanceMs*c.p.MinDwellFraction
		if !(modelSwing && volitional && dwelled) {
			return Transition{}
		}
		ended := s.CurrentPhaseDurationMs
		s.AvgStanceMs = c.smooth(s.AvgStanceMs, ended)
		s.StanceCount++
		c.enter(classify.Swing, nowMs)
		s.Stimulating = true
		return Transition{Kind: SwingOnset, AtMs: nowMs, EndedPhaseMs: ended}

	case classify.Swing:
		modelStance := predictedPhase == classify.Stance
		timedOut := s.CurrentPhaseDurationMs > c.p.SwingTimeoutMs
		if !modelStance && !timedOut {
			return Transition{}
		}
		ended := s.CurrentPhaseDurationMs
		s.AvgSwingMs = c.smooth(s.AvgSwingMs, ended)
		s.SwingCount++
		c.enter(classify.Stance, nowMs)
		s.Stimulating = false
		kind := HeelStrike
		if !modelStance {
			kind = SwingTimeout
		}
		return Transition{Kind: kind, AtMs: nowMs, EndedPhaseMs: ended}
	}
	return Transition{}
}

// gate applies the static-mode override. Every gated tick re-anchors the
// stance clock, so walking resumes from a clean Stance and time spent
// sitting never reaches the stance average.
func (c *Controller) gate(nowMs int64) Transition {
	s := &c.s
	s.Stimulating = false
	var t Transition
	if s.Phase != classify.Stance {
		t = Transition{Kind: SafetyReset, AtMs: nowMs, EndedPhaseMs: s.CurrentPhaseDurationMs}
	}
	// Re-anchors even when already in Stance, not only on a swing exit.
	c.enter(classify.Stance, nowMs)
	return t
}

func (c *Controller) enter(phase classify.ClassID, nowMs int64) {
	c.s.Phase = phase
	c.s.LastTransitionMs = nowMs
	c.s.CurrentPhaseDurationMs = 0
}

func (c *Controller) smooth(avg float64, sampleMs int64) float64 {
	return avg*c.p.Smoothing + float64(sampleMs)*(1-c.p.Smoothing)
}
