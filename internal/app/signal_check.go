// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/dsp"
	"github.com/relabs-tech/fes_gait/internal/emg"
)

// ChannelStats summarizes one channel over a check run.
type ChannelStats struct {
	Name        string
	Min, Max    float64 // raw
	Mean        float64 // raw, shows DC offset
	FilteredRMS float64
}

// RunSignalCheck reads n frames from the configured source and prints
// per-channel raw range, offset and conditioned RMS. Use it to check
// electrode contact before a session.
func RunSignalCheck(n int, w io.Writer) error {
	cfg := config.Get()
	settings, err := cfg.PipelineSettings()
	if err != nil {
		return err
	}
	src, err := OpenSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	stats, err := checkSignals(src, cfg.Channels, dsp.NewBank(len(cfg.Channels), settings.Bandpass, settings.Notch), n)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-6s %10s %10s %10s %12s\n", "chan", "min", "max", "mean", "filtered rms")
	for _, s := range stats {
		fmt.Fprintf(w, "%-6s %10.5f %10.5f %10.5f %12.5f\n", s.Name, s.Min, s.Max, s.Mean, s.FilteredRMS)
	}
	return nil
}

func checkSignals(src emg.Source, names []string, bank dsp.Bank, n int) ([]ChannelStats, error) {
	stats := make([]ChannelStats, len(names))
	sumSq := make([]float64, len(names))
	for ch := range stats {
		stats[ch] = ChannelStats{Name: names[ch], Min: math.Inf(1), Max: math.Inf(-1)}
	}

	read := 0
	for ; read < n; read++ {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", read, err)
		}
		if len(f.Channels) != len(names) {
			return nil, fmt.Errorf("frame %d: got %d channels, want %d", read, len(f.Channels), len(names))
		}
		for ch, x := range f.Channels {
			s := &stats[ch]
			s.Min = math.Min(s.Min, x)
			s.Max = math.Max(s.Max, x)
			s.Mean += x
			y := bank[ch].Filter(x)
			sumSq[ch] += y * y
		}
	}
	if read == 0 {
		return nil, fmt.Errorf("source delivered no frames")
	}
	for ch := range stats {
		stats[ch].Mean /= float64(read)
		stats[ch].FilteredRMS = math.Sqrt(sumSq[ch] / float64(read))
	}
	return stats, nil
}

func closeSource(src emg.Source) error {
	if err := emg.Close(src); err != nil {
		return fmt.Errorf("close source: %w", err)
	}
	return nil
}
