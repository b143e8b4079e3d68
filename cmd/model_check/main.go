// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/fes_gait/internal/app"
)

func main() {
	model := flag.String("model", "mode", "model YAML file, or \"mode\"/\"phase\" for the built-in tables")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: model_check [-model path] f0 f1 ... fN\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := app.RunModelCheck(*model, flag.Args(), os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
