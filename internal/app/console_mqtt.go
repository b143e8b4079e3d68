// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/fes_gait/internal/config"
	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

// RunConsoleMQTT prints controller status and phase transitions.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	var last telemetry.Status
	if err := telemetry.Subscribe(client, cfg.TopicStatus, func(s telemetry.Status) {
		// Print on changes only; status arrives ten times a second.
		if s.Mode != last.Mode || s.Phase != last.Phase || s.Stimulating != last.Stimulating || s.Primed != last.Primed {
			fmt.Println(formatStatus(s))
		}
		last = s
	}); err != nil {
		return err
	}

	if err := telemetry.Subscribe(client, cfg.TopicTransitions, func(ev telemetry.TransitionEvent) {
		fmt.Println(formatTransition(ev))
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatStatus(s telemetry.Status) string {
	if !s.Primed {
		return fmt.Sprintf("[STAT] t=%7dms  filling window", s.TimeMs)
	}
	return fmt.Sprintf("[STAT] t=%7dms  mode=%-14s phase=%-6s stim=%-3s  swing=%4.0fms stance=%4.0fms strides=%d",
		s.TimeMs, s.Mode, s.Phase, onOff(s.Stimulating), s.AvgSwingMs, s.AvgStanceMs, s.SwingCount)
}

func formatTransition(ev telemetry.TransitionEvent) string {
	return fmt.Sprintf("[EVNT] t=%7dms  %-13s mode=%-14s after %dms",
		ev.AtMs, ev.Kind, ev.Mode, ev.EndedPhaseMs)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
