// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/fes_gait/internal/emg"
)

// LineSource decodes EMG sentences from a byte stream. Noise, partial
// lines and sentences of other types are skipped and counted.
type LineSource struct {
	r        *bufio.Reader
	closer   io.Closer
	channels int
	dropped  int
}

// NewLineSource reads sentences with the given channel count from r.
func NewLineSource(r io.Reader, channels int) *LineSource {
	ls := &LineSource{r: bufio.NewReader(r), channels: channels}
	if c, ok := r.(io.Closer); ok {
		ls.closer = c
	}
	return ls
}

// Dropped returns how many lines were discarded so far.
func (ls *LineSource) Dropped() int { return ls.dropped }

// Next returns the next valid frame. A read error, io.EOF included, ends
// the stream.
func (ls *LineSource) Next() (emg.Frame, error) {
	for {
		line, err := ls.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return emg.Frame{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "$") {
			ls.dropped++
			continue
		}

		sentence, perr := nmea.Parse(line)
		if perr != nil {
			ls.dropped++
			continue
		}
		m, ok := sentence.(EMGSentence)
		if !ok || len(m.Values) != ls.channels || m.Seq < 0 {
			ls.dropped++
			continue
		}
		return emg.Frame{Seq: uint64(m.Seq), Channels: m.Values, Mode: emg.UnknownMode}, nil
	}
}

// Close closes the underlying stream when it is closable.
func (ls *LineSource) Close() error {
	if ls.closer == nil {
		return nil
	}
	if err := ls.closer.Close(); err != nil {
		return fmt.Errorf("close line source: %w", err)
	}
	return nil
}
