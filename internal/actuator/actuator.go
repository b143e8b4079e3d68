// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package actuator drives the stimulator enable line.
package actuator

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Output switches stimulation. Set is called on every controller decision,
// so implementations act on edges only.
type Output interface {
	Set(on bool) error
}

// GPIO drives a digital enable pin on the stimulator.
type GPIO struct {
	pin       gpio.PinOut
	activeLow bool
	on        bool
	known     bool
}

// NewGPIO looks the pin up by name (e.g. "GPIO17") and drives it to the
// off level.
func NewGPIO(pinName string, activeLow bool) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("stimulator pin %q not found", pinName)
	}
	g := newGPIO(pin, activeLow)
	if err := g.Set(false); err != nil {
		return nil, err
	}
	log.Printf("actuator: stimulator enable on %s (active low: %v)", pin.Name(), activeLow)
	return g, nil
}

func newGPIO(pin gpio.PinOut, activeLow bool) *GPIO {
	return &GPIO{pin: pin, activeLow: activeLow}
}

// Set drives the pin when the requested state differs from the last one.
func (g *GPIO) Set(on bool) error {
	if g.known && g.on == on {
		return nil
	}
	level := gpio.Level(on != g.activeLow)
	if err := g.pin.Out(level); err != nil {
		return fmt.Errorf("stimulator pin %s: %w", g.pin.Name(), err)
	}
	g.on, g.known = on, true
	return nil
}

// LogOutput stands in for the stimulator on hosts without GPIO.
type LogOutput struct {
	on bool
}

// NewLogOutput returns an output that logs stimulation edges.
func NewLogOutput() *LogOutput { return &LogOutput{} }

func (l *LogOutput) Set(on bool) error {
	if on != l.on {
		log.Printf("actuator: stimulation %s", onOff(on))
		l.on = on
	}
	return nil
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
