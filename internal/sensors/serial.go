// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// NewSerialSource opens the acquisition board's UART and decodes its
// sentence stream.
func NewSerialSource(portName string, baud uint, channels int) (*LineSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	log.Printf("sensors: serial port opened on %s at %d baud", portName, baud)
	return NewLineSource(port, channels), nil
}
