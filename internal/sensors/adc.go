// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"log"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/fes_gait/internal/emg"
)

var adcChannels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADCSource samples the EMG front end through an ADS1115 on I2C, one
// single-ended input per channel. It does not pace itself.
type ADCSource struct {
	bus  i2c.BusCloser
	pins []ads1x15.PinADC
	seq  uint64
}

// NewADCSource opens the ADS1115 at addr on the named bus ("" for the
// default bus). fullScaleMV is the expected input swing.
func NewADCSource(busName string, addr uint16, channels int, fullScaleMV int, sampleRate int) (*ADCSource, error) {
	if channels <= 0 || channels > len(adcChannels) {
		return nil, fmt.Errorf("ADS1115 has %d single-ended inputs, asked for %d", len(adcChannels), channels)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q: %w", busName, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ADS1115 at 0x%02X: %w", addr, err)
	}

	s := &ADCSource{bus: bus}
	fullScale := physic.ElectricPotential(fullScaleMV) * physic.MilliVolt
	freq := physic.Frequency(sampleRate) * physic.Hertz
	for ch := 0; ch < channels; ch++ {
		pin, err := dev.PinForChannel(adcChannels[ch], fullScale, freq, ads1x15.BestQuality)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("ADS1115 channel %d: %w", ch, err)
		}
		s.pins = append(s.pins, pin)
	}
	log.Printf("sensors: ADS1115 at 0x%02X, %d channels, ±%d mV", addr, channels, fullScaleMV)
	return s, nil
}

// Next reads every channel once, in order.
func (s *ADCSource) Next() (emg.Frame, error) {
	f := emg.Frame{Seq: s.seq, Channels: make([]float64, len(s.pins)), Mode: emg.UnknownMode}
	for ch, pin := range s.pins {
		sample, err := pin.Read()
		if err != nil {
			return emg.Frame{}, fmt.Errorf("ADS1115 channel %d read: %w", ch, err)
		}
		f.Channels[ch] = float64(sample.V) / float64(physic.Volt)
	}
	s.seq++
	return f, nil
}

// Close halts the pins and releases the bus.
func (s *ADCSource) Close() error {
	var errs []error
	for _, pin := range s.pins {
		errs = append(errs, pin.Halt())
	}
	errs = append(errs, s.bus.Close())
	return errors.Join(errs...)
}
