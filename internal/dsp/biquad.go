// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dsp holds the per-channel EMG conditioning filters.
package dsp

import "fmt"

// Coeffs are the five coefficients of one second-order section with a0
// normalized to 1.
//
// A1 and A2 are applied exactly as given in the difference equation
// (s1 = s2 + b1*x - a1*y). Tables exported from scipy already carry the
// sign expected here; never negate them at load time.
type Coeffs struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// CoeffsFromSlice builds Coeffs from a {b0, b1, b2, a1, a2} list.
func CoeffsFromSlice(v []float64) (Coeffs, error) {
	if len(v) != 5 {
		return Coeffs{}, fmt.Errorf("biquad needs 5 coefficients (b0,b1,b2,a1,a2), got %d", len(v))
	}
	return Coeffs{B0: v[0], B1: v[1], B2: v[2], A1: v[3], A2: v[4]}, nil
}

// Biquad is a single second-order IIR section in Direct Form II Transposed.
// Coefficients are fixed at construction; only s1 and s2 change.
type Biquad struct {
	c      Coeffs
	s1, s2 float64
}

// NewBiquad returns a filter with zeroed state.
func NewBiquad(c Coeffs) Biquad {
	return Biquad{c: c}
}

// Coeffs returns the coefficients the filter was built with.
func (f *Biquad) Coeffs() Coeffs {
	return f.c
}

// Reset zeroes the state registers without touching the coefficients.
func (f *Biquad) Reset() {
	f.s1 = 0
	f.s2 = 0
}

// Process filters one sample:
//
//	y  = b0*x + s1
//	s1 = s2 + b1*x - a1*y
//	s2 = b2*x - a2*y
func (f *Biquad) Process(x float64) float64 {
	y := f.c.B0*x + f.s1
	f.s1 = f.s2 + f.c.B1*x - f.c.A1*y
	f.s2 = f.c.B2*x - f.c.A2*y
	return y
}
