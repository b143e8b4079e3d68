// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

// Default coefficients for fs = 250 Hz, as exported by the training
// preprocessing (first-order Butterworth 20-90 Hz bandpass, 50 Hz notch).
var (
	DefaultBandpass = Coeffs{B0: 0.66245985, B1: 0.0, B2: -0.66245985, A1: 0.23261682, A2: -0.32491970}
	DefaultNotch    = Coeffs{B0: 0.97448228, B1: 0.0, B2: 0.97448228, A1: 0.0, A2: 0.94896457}
)

// Conditioner is the filter chain for one EMG channel: bandpass then notch.
// Channels never share a Conditioner.
type Conditioner struct {
	bandpass Biquad
	notch    Biquad
}

// NewConditioner builds a chain from the given stage coefficients.
func NewConditioner(bandpass, notch Coeffs) *Conditioner {
	return &Conditioner{
		bandpass: NewBiquad(bandpass),
		notch:    NewBiquad(notch),
	}
}

// NewDefaultConditioner builds a chain with DefaultBandpass and DefaultNotch.
func NewDefaultConditioner() *Conditioner {
	return NewConditioner(DefaultBandpass, DefaultNotch)
}

// Reset clears both stages' state.
func (c *Conditioner) Reset() {
	c.bandpass.Reset()
	c.notch.Reset()
}

// Filter runs one raw sample through the chain.
func (c *Conditioner) Filter(x float64) float64 {
	return c.notch.Process(c.bandpass.Process(x))
}

// Bank holds one Conditioner per channel.
type Bank []*Conditioner

// NewBank returns n independent chains with identical coefficients.
func NewBank(n int, bandpass, notch Coeffs) Bank {
	b := make(Bank, n)
	for i := range b {
		b[i] = NewConditioner(bandpass, notch)
	}
	return b
}

// Reset clears every chain.
func (b Bank) Reset() {
	for _, c := range b {
		c.Reset()
	}
}
