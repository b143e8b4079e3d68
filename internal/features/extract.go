// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package features

import (
	"errors"
	"fmt"
	"math"
)

// PerChannel is the number of features computed for each channel.
const PerChannel = 3

// Component offsets inside one channel's block.
const (
	MAV = iota
	RMS
	WL
)

// ErrInsufficientHistory is returned when a feature window reaches back past
// the samples written so far. The driver must withhold inference until the
// window is primed.
var ErrInsufficientHistory = errors.New("feature window longer than recorded history")

// Vector is a flat feature vector laid out as
// [ch0 MAV, ch0 RMS, ch0 WL, ch1 MAV, ...].
type Vector []float64

// NewVector allocates a vector for the given channel count.
func NewVector(channels int) Vector {
	return make(Vector, channels*PerChannel)
}

// Channels returns the channel count the vector is laid out for.
func (v Vector) Channels() int { return len(v) / PerChannel }

// Get returns one component of one channel.
func (v Vector) Get(ch, component int) float64 { return v[ch*PerChannel+component] }

// MAV returns the mean absolute value of channel ch.
func (v Vector) MAV(ch int) float64 { return v.Get(ch, MAV) }

// RMS returns the root mean square of channel ch.
func (v Vector) RMS(ch int) float64 { return v.Get(ch, RMS) }

// WL returns the waveform length of channel ch.
func (v Vector) WL(ch int) float64 { return v.Get(ch, WL) }

// Extract computes the features of the trailing windowLen samples of every
// channel into dst. windowLen is clamped to the window capacity.
//
// MAV and RMS are normalized by windowLen. WL is not: it is the sum of
// absolute first differences of the rectified series and grows with
// windowLen, so it is only comparable to WL computed over the same length
// the classifier was fit on. The first difference is taken against the
// sample just before the window when that sample is still stored.
func Extract(w *Window, windowLen int, dst Vector) error {
	n := windowLen
	if n > w.capacity {
		n = w.capacity
	}
	if n <= 0 {
		return fmt.Errorf("feature window length must be positive, got %d", windowLen)
	}
	if uint64(n) > w.written {
		return fmt.Errorf("%w: need %d samples, have %d", ErrInsufficientHistory, n, w.written)
	}
	if len(dst) != len(w.data)*PerChannel {
		return fmt.Errorf("feature vector has %d slots, window needs %d", len(dst), len(w.data)*PerChannel)
	}

	last := w.cursor - 1
	if last < 0 {
		last += w.capacity
	}
	start := last - n + 1
	if start < 0 {
		start += w.capacity
	}
	hasPrev := n < w.capacity && w.written > uint64(n)
	prevIdx := start - 1
	if prevIdx < 0 {
		prevIdx += w.capacity
	}

	inv := 1 / float64(n)
	for ch, buf := range w.data {
		var sumAbs, sumSq, wl float64
		prev := math.Abs(buf[start])
		if hasPrev {
			prev = math.Abs(buf[prevIdx])
		}
		idx := start
		for i := 0; i < n; i++ {
			x := buf[idx]
			r := math.Abs(x)
			sumAbs += r
			sumSq += x * x
			wl += math.Abs(r - prev)
			prev = r
			idx++
			if idx == w.capacity {
				idx = 0
			}
		}
		base := ch * PerChannel
		dst[base+MAV] = sumAbs * inv
		dst[base+RMS] = math.Sqrt(sumSq * inv)
		dst[base+WL] = wl
	}
	return nil
}
