// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/relabs-tech/fes_gait/internal/emg"
)

// CSVSource replays a recorded session. The first row is a header; the
// channel and mode columns are looked up by name. Recordings taken at a
// higher rate are decimated by keeping every n-th row.
type CSVSource struct {
	f          *os.File
	r          *csv.Reader
	cols       []int
	modeCol    int
	decimation int
	row        uint64
	seq        uint64
}

// NewCSVSource opens path. modeColumn may be empty when the recording has
// no labels.
func NewCSVSource(path string, columns []string, modeColumn string, decimation int) (*CSVSource, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("csv replay needs at least one channel column")
	}
	if decimation <= 0 {
		return nil, fmt.Errorf("decimation must be positive, got %d", decimation)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	s, err := newCSVReader(f, columns, modeColumn, decimation)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.f = f
	return s, nil
}

func newCSVReader(r io.Reader, columns []string, modeColumn string, decimation int) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	s := &CSVSource{r: cr, modeCol: -1, decimation: decimation}
	for _, name := range columns {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("column %q not in header %v", name, header)
		}
		s.cols = append(s.cols, i)
	}
	if modeColumn != "" {
		i, ok := index[modeColumn]
		if !ok {
			return nil, fmt.Errorf("mode column %q not in header %v", modeColumn, header)
		}
		s.modeCol = i
	}
	return s, nil
}

// Next returns the next kept row, or io.EOF at the end of the file.
func (s *CSVSource) Next() (emg.Frame, error) {
	for {
		rec, err := s.r.Read()
		if err != nil {
			return emg.Frame{}, err
		}
		row := s.row
		s.row++
		if row%uint64(s.decimation) != 0 {
			continue
		}

		f := emg.Frame{Seq: s.seq, Channels: make([]float64, len(s.cols)), Mode: emg.UnknownMode}
		for ch, col := range s.cols {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return emg.Frame{}, fmt.Errorf("row %d channel %d: %w", row+1, ch, err)
			}
			f.Channels[ch] = v
		}
		if s.modeCol >= 0 {
			m, err := strconv.ParseFloat(rec[s.modeCol], 64)
			if err != nil {
				return emg.Frame{}, fmt.Errorf("row %d mode: %w", row+1, err)
			}
			f.Mode = int(m)
		}
		s.seq++
		return f, nil
	}
}

// Close closes the recording.
func (s *CSVSource) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
