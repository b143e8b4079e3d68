// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

const (
	displayWidth  = 128
	displayHeight = 64
	displayChars  = displayWidth / 7 // basicfont.Face7x13 advance
)

// RunDisplay shows the controller status on the OLED worn on the belt.
func RunDisplay() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), renderLines("FES Gait", "Waiting for", "controller"), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	var (
		mu     sync.RWMutex
		latest telemetry.Status
		have   bool
	)

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := telemetry.Subscribe(client, cfg.TopicStatus, func(s telemetry.Status) {
		mu.Lock()
		latest, have = s, true
		mu.Unlock()
	}); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for range ticker.C {
		mu.RLock()
		s, ok := latest, have
		mu.RUnlock()

		if err := dev.Draw(dev.Bounds(), renderStatus(s, ok), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
	return nil
}

// renderStatus lays the status out on four text rows.
func renderStatus(s telemetry.Status, have bool) *image1bit.VerticalLSB {
	switch {
	case !have:
		return renderLines("FES Gait", "Waiting...")
	case !s.Primed:
		return renderLines("FES Gait", "Filling window")
	}
	return renderLines(
		"M: "+s.Mode,
		fmt.Sprintf("P: %-6s %s", s.Phase, stimLabel(s.Stimulating)),
		fmt.Sprintf("Sw%4.0f St%4.0f", s.AvgSwingMs, s.AvgStanceMs),
		fmt.Sprintf("Strides %d", s.SwingCount),
	)
}

func stimLabel(on bool) string {
	if on {
		return "STIM"
	}
	return ""
}

func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		if len(line) > displayChars {
			line = line[:displayChars]
		}
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(strings.ReplaceAll(line, "_", " "))
	}
	return img
}
