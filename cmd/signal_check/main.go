// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/fes_gait/internal/app"
	"github.com/relabs-tech/fes_gait/internal/config"
)

func main() {
	configPath := flag.String("config", "./fes_config.txt", "path to configuration file")
	seconds := flag.Int("seconds", 5, "how long to sample")
	flag.Parse()

	log.Println("starting EMG signal check")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	n := *seconds * config.Get().SampleRateHz
	if err := app.RunSignalCheck(n, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
