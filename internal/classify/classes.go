// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package classify implements the two-stage locomotion classifier: a mode
// model on a long context window gating a phase model on a short window.
package classify

import "fmt"

// ClassID is the label a model emits.
type ClassID int

// Locomotion modes, numbered as in the training recordings.
const (
	Sitting      ClassID = 0
	LevelWalking ClassID = 1
	RampAscent   ClassID = 2
	RampDescent  ClassID = 3
	StairAscent  ClassID = 4
	StairDescent ClassID = 5
	Standing     ClassID = 6
)

// Gait phases. NoPhase is emitted by phase models trained with a
// "neither" class; the controller treats it as "no evidence".
const (
	Stance  ClassID = 0
	Swing   ClassID = 1
	NoPhase ClassID = 2
)

var modeNames = map[ClassID]string{
	Sitting:      "sitting",
	LevelWalking: "level_walking",
	RampAscent:   "ramp_ascent",
	RampDescent:  "ramp_descent",
	StairAscent:  "stair_ascent",
	StairDescent: "stair_descent",
	Standing:     "standing",
}

// ModeName returns a short name for a locomotion mode.
func ModeName(id ClassID) string {
	if n, ok := modeNames[id]; ok {
		return n
	}
	return fmt.Sprintf("mode_%d", int(id))
}

// PhaseName returns a short name for a gait phase.
func PhaseName(id ClassID) string {
	switch id {
	case Stance:
		return "stance"
	case Swing:
		return "swing"
	case NoPhase:
		return "none"
	default:
		return fmt.Sprintf("phase_%d", int(id))
	}
}

// ModeSet is a small set of modes, e.g. the non-ambulatory ones.
type ModeSet []ClassID

// DefaultStaticModes are the modes in which stimulation is disabled.
var DefaultStaticModes = ModeSet{Sitting, Standing}

// Contains reports whether id is in the set.
func (s ModeSet) Contains(id ClassID) bool {
	for _, m := range s {
		if m == id {
			return true
		}
	}
	return false
}
