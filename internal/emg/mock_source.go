// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package emg

import (
	"math"
	"math/rand/v2"
)

// Gait timing of the synthetic signal.
const (
	MockRestMs   = 4000
	MockStanceMs = 600
	MockSwingMs  = 400
)

// Recorded mode labels used by the mock. They match the classifier's
// Sitting and LevelWalking ids.
const (
	mockModeRest    = 0
	mockModeWalking = 1
)

type mockSource struct {
	channels   int
	sampleRate int
	seq        uint64
	rng        *rand.Rand
}

// NewMockSource creates a deterministic source that sits still for a few
// seconds and then walks: quiet stance, then an 80 Hz burst on the first
// channel (tibialis) during swing and a weaker one on the others during
// stance.
func NewMockSource(channels, sampleRate int) Source {
	return &mockSource{
		channels:   channels,
		sampleRate: sampleRate,
		rng:        rand.New(rand.NewPCG(1, 2)),
	}
}

func (m *mockSource) Next() (Frame, error) {
	t := float64(m.seq) / float64(m.sampleRate)
	f := Frame{Seq: m.seq, Channels: make([]float64, m.channels), Mode: mockModeRest}
	if m.seq*1000/uint64(m.sampleRate) >= MockRestMs {
		f.Mode = mockModeWalking
	}
	swing := MockSwing(m.seq, m.sampleRate)
	m.seq++

	carrier := math.Sin(2 * math.Pi * 80 * t)
	for ch := range f.Channels {
		amp := 0.002 // baseline noise floor
		switch {
		case ch == 0 && swing:
			amp = 0.3
		case ch != 0 && f.Mode == mockModeWalking && !swing:
			amp = 0.08
		}
		f.Channels[ch] = amp*carrier + 0.002*(m.rng.Float64()-0.5)
	}
	return f, nil
}

// MockSwing reports whether the mock is in a swing burst at sample seq.
func MockSwing(seq uint64, sampleRate int) bool {
	ms := seq * 1000 / uint64(sampleRate)
	if ms < MockRestMs {
		return false
	}
	return (ms-MockRestMs)%(MockStanceMs+MockSwingMs) >= MockStanceMs
}
