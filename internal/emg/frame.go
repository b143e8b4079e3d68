// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package emg holds the raw sample model shared by acquisition back ends
// and the pipeline.
package emg

// UnknownMode marks frames without a ground-truth label.
const UnknownMode = -1

// Frame is one simultaneous sample of every channel, in volts at the
// acquisition input.
type Frame struct {
	Seq      uint64    `json:"seq"`
	Channels []float64 `json:"channels"`
	// Mode is the recorded locomotion label on replayed data, UnknownMode
	// otherwise.
	Mode int `json:"mode"`
}

// Source yields frames in acquisition order. Finite sources return io.EOF
// after the last frame.
type Source interface {
	Next() (Frame, error)
}

// Closer is implemented by sources that hold a device or file open.
type Closer interface {
	Close() error
}

// Close releases src if it holds anything.
func Close(src Source) error {
	if c, ok := src.(Closer); ok {
		return c.Close()
	}
	return nil
}
