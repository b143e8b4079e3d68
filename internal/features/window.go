// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package features keeps the conditioned sample history and computes the
// MAV / RMS / WL feature vectors the classifiers are fit on.
package features

// Window is a fixed-capacity ring of conditioned samples, one row per
// channel. All rows share a single cursor: the driver writes every channel
// for a tick and then calls Advance exactly once.
type Window struct {
	data     [][]float64
	capacity int
	cursor   int    // slot the next tick is written to
	written  uint64 // ticks committed by Advance
}

// NewWindow allocates the whole history up front; nothing allocates after.
func NewWindow(channels, capacity int) *Window {
	if channels <= 0 || capacity <= 0 {
		panic("features: window needs at least one channel and one slot")
	}
	data := make([][]float64, channels)
	backing := make([]float64, channels*capacity)
	for ch := range data {
		data[ch] = backing[ch*capacity : (ch+1)*capacity : (ch+1)*capacity]
	}
	return &Window{data: data, capacity: capacity}
}

// Channels returns the number of channel rows.
func (w *Window) Channels() int { return len(w.data) }

// Capacity returns the slot count per channel.
func (w *Window) Capacity() int { return w.capacity }

// Written returns the number of committed ticks since the last Reset.
func (w *Window) Written() uint64 { return w.written }

// Len returns how many samples per channel are recoverable.
func (w *Window) Len() int {
	if w.written >= uint64(w.capacity) {
		return w.capacity
	}
	return int(w.written)
}

// Primed reports whether the ring has been filled at least once.
func (w *Window) Primed() bool {
	return w.written >= uint64(w.capacity)
}

// Write stores v for channel ch at the current cursor.
func (w *Window) Write(ch int, v float64) {
	w.data[ch][w.cursor] = v
}

// Advance commits the current tick and moves the cursor to the oldest slot.
func (w *Window) Advance() {
	w.cursor++
	if w.cursor >= w.capacity {
		w.cursor = 0
	}
	w.written++
}

// Push writes one value per channel and advances.
func (w *Window) Push(values []float64) {
	for ch, v := range values {
		w.Write(ch, v)
	}
	w.Advance()
}

// At returns the sample of channel ch written `back` ticks before the most
// recent one (back = 0 is the newest). The caller keeps back < Len().
func (w *Window) At(ch, back int) float64 {
	idx := w.cursor - 1 - back
	for idx < 0 {
		idx += w.capacity
	}
	return w.data[ch][idx]
}

// Reset zeroes the history and rewinds the cursor.
func (w *Window) Reset() {
	for _, row := range w.data {
		clear(row)
	}
	w.cursor = 0
	w.written = 0
}
