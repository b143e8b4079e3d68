// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline runs one EMG sample tick at a time through conditioning,
// windowing, the classifier cascade and the stimulation controller.
//
// A Pipeline is single-threaded: the caller owns pacing and calls Tick once
// per sample period. Nothing allocates after New.
package pipeline

import (
	"fmt"

	"github.com/relabs-tech/fes_gait/internal/classify"
	"github.com/relabs-tech/fes_gait/internal/control"
	"github.com/relabs-tech/fes_gait/internal/dsp"
	"github.com/relabs-tech/fes_gait/internal/emg"
	"github.com/relabs-tech/fes_gait/internal/features"
)

// Settings fix the numeric behaviour of a pipeline.
type Settings struct {
	SampleRateHz      int
	Channels          int
	ContextLen        int // samples fed to the mode model
	PhaseLen          int // samples fed to the phase model
	InferenceInterval int // ticks between cascade evaluations
	TriggerChannel    int // channel whose context RMS is the volitional trigger
	Bandpass          dsp.Coeffs
	Notch             dsp.Coeffs
	Control           control.Params
}

// DefaultSettings is the deployed configuration: 3 channels at 250 Hz,
// 2 s context, 0.2 s phase window, inference every 100 ms.
func DefaultSettings() Settings {
	return Settings{
		SampleRateHz:      250,
		Channels:          3,
		ContextLen:        500,
		PhaseLen:          50,
		InferenceInterval: 25,
		TriggerChannel:    0,
		Bandpass:          dsp.DefaultBandpass,
		Notch:             dsp.DefaultNotch,
		Control:           control.DefaultParams(),
	}
}

// Validate checks the settings against each other.
func (s Settings) Validate() error {
	if s.SampleRateHz <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", s.SampleRateHz)
	}
	if s.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", s.Channels)
	}
	if s.ContextLen <= 0 || s.PhaseLen <= 0 {
		return fmt.Errorf("window lengths must be positive, got context=%d phase=%d", s.ContextLen, s.PhaseLen)
	}
	if s.PhaseLen > s.ContextLen {
		return fmt.Errorf("phase window (%d) longer than context window (%d)", s.PhaseLen, s.ContextLen)
	}
	if s.InferenceInterval <= 0 {
		return fmt.Errorf("inference interval must be positive, got %d", s.InferenceInterval)
	}
	if s.TriggerChannel < 0 || s.TriggerChannel >= s.Channels {
		return fmt.Errorf("trigger channel %d outside 0..%d", s.TriggerChannel, s.Channels-1)
	}
	return s.Control.Validate()
}

// TickMs converts a tick index to the controller timestamp.
func (s Settings) TickMs(tick uint64) int64 {
	return int64(tick * 1000 / uint64(s.SampleRateHz))
}

// Output is what one tick exposes to the driver.
type Output struct {
	Tick   uint64 `json:"tick"`
	TimeMs int64  `json:"time_ms"`
	// Inferred is set on ticks that ran the cascade and the controller.
	Inferred        bool               `json:"inferred"`
	Mode            classify.ClassID   `json:"mode"`
	PredictedPhase  classify.ClassID   `json:"predicted_phase"`
	Phase           classify.ClassID   `json:"phase"`
	Aux             float64            `json:"aux"`
	Stimulating     bool               `json:"stimulating"`
	PhaseDurationMs int64              `json:"phase_duration_ms"`
	Transition      control.Transition `json:"-"`
}

// Pipeline owns every piece of per-session state.
type Pipeline struct {
	s       Settings
	bank    dsp.Bank
	window  *features.Window
	cascade *classify.Cascade
	ctrl    *control.Controller

	tick      uint64
	predicted classify.ClassID
	aux       float64
	context   features.Vector // copy of the last context features
}

// New validates the settings against both models and allocates all state.
func New(s Settings, mode, phase classify.Model) (*Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline settings: %w", err)
	}
	cascade, err := classify.NewCascade(mode, phase, classify.CascadeConfig{
		Channels:    s.Channels,
		ContextLen:  s.ContextLen,
		PhaseLen:    s.PhaseLen,
		StaticModes: s.Control.StaticModes,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline cascade: %w", err)
	}
	return &Pipeline{
		s:       s,
		bank:    dsp.NewBank(s.Channels, s.Bandpass, s.Notch),
		window:  features.NewWindow(s.Channels, s.ContextLen),
		cascade: cascade,
		ctrl:    control.New(s.Control),
		context: features.NewVector(s.Channels),
	}, nil
}

// Settings returns the settings the pipeline was built with.
func (p *Pipeline) Settings() Settings { return p.s }

// Primed reports whether the sample window has filled once.
func (p *Pipeline) Primed() bool { return p.window.Primed() }

// State returns the controller state.
func (p *Pipeline) State() control.State { return p.ctrl.Snapshot() }

// ContextFeatures returns the features of the last inference. The slice is
// owned by the pipeline.
func (p *Pipeline) ContextFeatures() features.Vector { return p.context }

// Tick consumes one frame. Time is derived from the tick count, never from
// the wall clock.
func (p *Pipeline) Tick(f emg.Frame) (Output, error) {
	if len(f.Channels) != p.s.Channels {
		return Output{}, fmt.Errorf("tick %d: got %d channels, want %d", p.tick, len(f.Channels), p.s.Channels)
	}
	idx := p.tick
	for ch, x := range f.Channels {
		p.window.Write(ch, p.bank[ch].Filter(x))
	}
	p.window.Advance()
	p.tick++

	now := p.s.TickMs(idx)
	out := Output{Tick: idx, TimeMs: now}

	if idx%uint64(p.s.InferenceInterval) == 0 && p.window.Primed() {
		res, err := p.cascade.Evaluate(p.window)
		if err != nil {
			return Output{}, fmt.Errorf("tick %d: %w", idx, err)
		}
		copy(p.context, res.Context)
		p.predicted = res.Phase
		p.aux = res.Context.RMS(p.s.TriggerChannel)
		out.Inferred = true
		out.Transition = p.ctrl.Update(res.Mode, res.Phase, p.aux, now)
	}

	st := p.ctrl.Snapshot()
	out.Mode = st.Mode
	out.PredictedPhase = p.predicted
	out.Phase = st.Phase
	out.Aux = p.aux
	out.Stimulating = st.Stimulating
	out.PhaseDurationMs = now - st.LastTransitionMs
	return out, nil
}

// Status is a diagnostic snapshot for publishing.
type Status struct {
	Tick           uint64           `json:"tick"`
	TimeMs         int64            `json:"time_ms"`
	Primed         bool             `json:"primed"`
	PredictedPhase classify.ClassID `json:"predicted_phase"`
	Aux            float64          `json:"aux"`
	Controller     control.State    `json:"controller"`
}

// Status reports where the pipeline stands after the last tick.
func (p *Pipeline) Status() Status {
	var now int64
	if p.tick > 0 {
		now = p.s.TickMs(p.tick - 1)
	}
	return Status{
		Tick:           p.tick,
		TimeMs:         now,
		Primed:         p.window.Primed(),
		PredictedPhase: p.predicted,
		Aux:            p.aux,
		Controller:     p.ctrl.Snapshot(),
	}
}

// Reset clears filters, history and controller for a new therapy session.
func (p *Pipeline) Reset() {
	p.bank.Reset()
	p.window.Reset()
	p.ctrl.Reset(0)
	p.tick = 0
	p.predicted = classify.Stance
	p.aux = 0
	clear(p.context)
}
