// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/fes_gait/internal/app"
	"github.com/relabs-tech/fes_gait/internal/config"
)

func main() {
	configPath := flag.String("config", "./fes_config.txt", "path to configuration file")
	fast := flag.Bool("fast", false, "replay as fast as possible instead of in real time")
	flag.Parse()

	log.Println("starting FES gait replay console (no MQTT, no stimulator)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunReplayConsole(*fast); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
