// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// The acquisition front end streams one NMEA-style sentence per sample:
//
//	$EGEMG,<seq>,<ch0>,<ch1>,...*CS
//
// Values are volts; CS is the usual XOR checksum.
const (
	TypeEMG   = "EMG"
	talkerEMG = "EG"
)

// EMGSentence is a decoded sample sentence.
type EMGSentence struct {
	nmea.BaseSentence
	Seq    int64
	Values []float64
}

func init() {
	nmea.MustRegisterParser(TypeEMG, parseEMG)
}

func parseEMG(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(TypeEMG)
	if len(s.Fields) < 2 {
		return nil, fmt.Errorf("EMG sentence needs a sequence and at least one channel, got %d fields", len(s.Fields))
	}
	m := EMGSentence{
		BaseSentence: s,
		Seq:          p.Int64(0, "sequence"),
		Values:       make([]float64, len(s.Fields)-1),
	}
	for i := range m.Values {
		m.Values[i] = p.Float64(i+1, fmt.Sprintf("channel %d", i))
	}
	return m, p.Err()
}

// FormatEMG renders a sample as a checksummed sentence without line ending.
func FormatEMG(seq uint64, values []float64) string {
	var b strings.Builder
	b.WriteString(talkerEMG)
	b.WriteString(TypeEMG)
	b.WriteByte(',')
	b.WriteString(strconv.FormatUint(seq, 10))
	for _, v := range values {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
	}
	body := b.String()
	return "$" + body + "*" + nmea.Checksum(body)
}
